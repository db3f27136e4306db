package system

import (
	"go-social/internal/features/notification"
	"go-social/internal/middleware"
	"go-social/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type DebugController struct {
	hub *notification.Hub
}

func NewDebugController(hub *notification.Hub) *DebugController {
	return &DebugController{hub: hub}
}

// GetCurrentUser godoc
// @Summary      Get current user info
// @Description  Get the claims of the current token and the user's live sockets
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/debug/me [get]
func (c *DebugController) GetCurrentUser(ctx *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	claims := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)

	return ctx.JSON(fiber.Map{
		"user_id":     userID.Hex(),
		"email":       claims.Email,
		"connections": c.hub.Connections(userID.Hex()),
		"message":     "This is your current JWT token data",
	})
}
