package maintenance

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MaintenanceController struct {
	Service ReconcileService
	Log     *zap.Logger
}

func NewMaintenanceController(service ReconcileService, log *zap.Logger) *MaintenanceController {
	return &MaintenanceController{Service: service, Log: log}
}

// Reconcile godoc
// @Summary Repair member counts and following lists
// @Tags maintenance
// @Produce json
// @Success 200 {object} ReconcileResult
// @Failure 409 {object} map[string]interface{}
// @Router /api/maintenance/reconcile [post]
func (ctrl *MaintenanceController) Reconcile(c *fiber.Ctx) error {
	result, err := ctrl.Service.Reconcile(c.UserContext())
	if errors.Is(err, ErrReconcileRunning) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		ctrl.Log.Error("Reconciliation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}
