package notification

import (
	"go-social/internal/common/api"
	"go-social/internal/config"
	"go-social/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, config *config.Config) api.Route {
	return &NotificationApi{
		controller: controller,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireUser())

	group.Get("/", h.controller.List)
	group.Get("/unread-count", h.controller.GetUnreadCount)
	group.Put("/read-all", h.controller.MarkAllAsRead)
	group.Put("/:id/read", h.controller.MarkAsRead)

	app.Get("/api/ws", h.controller.UpgradeWebSocket(h.config.SkipAuth), websocket.New(h.controller.HandleWebSocket))
}
