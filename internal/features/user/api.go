package user

import (
	"go-social/internal/config"
	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) *UserApi {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	users := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))

	users.Put("/me/info", middleware.RequireUser(), h.controller.UpdateMyInfo)
	users.Post("/me/profile-picture", middleware.RequireUser(), h.controller.UploadProfilePicture)
	users.Get("/:userId/info", h.controller.GetInfo)
}
