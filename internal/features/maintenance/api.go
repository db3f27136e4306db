package maintenance

import (
	"go-social/internal/config"
	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MaintenanceApi struct {
	controller *MaintenanceController
	config     *config.Config
}

func NewMaintenanceApi(controller *MaintenanceController, config *config.Config) *MaintenanceApi {
	return &MaintenanceApi{
		controller: controller,
		config:     config,
	}
}

func (h *MaintenanceApi) Setup(app *fiber.App) {
	maintenance := app.Group("/api/maintenance", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireUser())
	maintenance.Post("/reconcile", h.controller.Reconcile)
}
