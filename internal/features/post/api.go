package post

import (
	"go-social/internal/config"
	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PostApi struct {
	controller *PostController
	config     *config.Config
}

func NewPostApi(controller *PostController, config *config.Config) *PostApi {
	return &PostApi{
		controller: controller,
		config:     config,
	}
}

func (h *PostApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	app.Post("/api/groups/:groupId/posts", auth, middleware.RequireUser(), h.controller.CreatePost)
	app.Get("/api/groups/:groupId/posts", auth, middleware.RequireUser(), h.controller.ListGroupPosts)
	app.Delete("/api/posts/:id", auth, middleware.RequireUser(), h.controller.DeletePost)
}
