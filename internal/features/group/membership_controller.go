package group

import (
	"context"
	"fmt"

	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MembershipController struct {
	Service MembershipService
	Log     *zap.Logger
}

func NewMembershipController(service MembershipService, log *zap.Logger) *MembershipController {
	return &MembershipController{Service: service, Log: log}
}

type reviewRequest struct {
	UserID string `json:"user_id"`
}

// JoinGroup godoc
// @Summary Join a public group
// @Tags membership
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/groups/{id}/join [post]
func (ctrl *MembershipController) JoinGroup(c *fiber.Ctx) error {
	actor, groupID, err := actorAndGroup(c, "id")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	group, err := ctrl.Service.JoinGroup(c.UserContext(), actor, groupID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Successfully joined group", "group": group})
}

// LeaveGroup godoc
// @Summary Leave a group
// @Tags membership
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id}/leave [post]
func (ctrl *MembershipController) LeaveGroup(c *fiber.Ctx) error {
	actor, groupID, err := actorAndGroup(c, "id")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	group, err := ctrl.Service.LeaveGroup(c.UserContext(), actor, groupID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Successfully left group", "group": group})
}

// RequestJoin godoc
// @Summary Request to join a private group
// @Tags membership
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id}/request [post]
func (ctrl *MembershipController) RequestJoin(c *fiber.Ctx) error {
	actor, groupID, err := actorAndGroup(c, "id")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	group, err := ctrl.Service.RequestJoin(c.UserContext(), actor, groupID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Join request sent successfully", "group": group})
}

// CancelJoinRequest godoc
// @Summary Cancel a pending join request
// @Tags membership
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id}/cancel-request [post]
func (ctrl *MembershipController) CancelJoinRequest(c *fiber.Ctx) error {
	actor, groupID, err := actorAndGroup(c, "id")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	if err := ctrl.Service.CancelRequest(c.UserContext(), actor, groupID); err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Join request canceled"})
}

// ApproveJoinRequest godoc
// @Summary Approve a pending join request
// @Tags membership
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param input body reviewRequest true "Requesting user"
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id}/approve [post]
func (ctrl *MembershipController) ApproveJoinRequest(c *fiber.Ctx) error {
	return ctrl.review(c, ctrl.Service.ApproveRequest, "Join request approved")
}

// RejectJoinRequest godoc
// @Summary Reject a pending join request
// @Tags membership
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param input body reviewRequest true "Requesting user"
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{id}/reject [post]
func (ctrl *MembershipController) RejectJoinRequest(c *fiber.Ctx) error {
	return ctrl.review(c, ctrl.Service.RejectRequest, "Join request rejected")
}

type reviewFunc func(ctx context.Context, actor, groupID, userID primitive.ObjectID) (*GroupView, error)

func (ctrl *MembershipController) review(c *fiber.Ctx, fn reviewFunc, message string) error {
	actor, groupID, err := actorAndGroup(c, "id")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	group, err := fn(c.UserContext(), actor, groupID, userID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(fiber.Map{"message": message, "group": group})
}

// GetGroupMembers godoc
// @Summary List group members
// @Tags membership
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} MemberList
// @Failure 403 {object} map[string]interface{}
// @Router /api/groups/{groupId}/members [get]
func (ctrl *MembershipController) GetGroupMembers(c *fiber.Ctx) error {
	actor, groupID, err := actorAndGroup(c, "groupId")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	members, err := ctrl.Service.GetMembers(c.UserContext(), actor, groupID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(members)
}

// ExportMembers godoc
// @Summary Export group members as xlsx
// @Tags membership
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param groupId path string true "Group ID"
// @Success 200 {file} file
// @Router /api/groups/{groupId}/members/export [get]
func (ctrl *MembershipController) ExportMembers(c *fiber.Ctx) error {
	actor, groupID, err := actorAndGroup(c, "groupId")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	data, filename, err := ctrl.Service.ExportMembers(c.UserContext(), actor, groupID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}

// RemoveMember godoc
// @Summary Remove a member from a group
// @Tags membership
// @Produce json
// @Param groupId path string true "Group ID"
// @Param userId path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/{groupId}/members/{userId} [delete]
func (ctrl *MembershipController) RemoveMember(c *fiber.Ctx) error {
	actor, groupID, err := actorAndGroup(c, "groupId")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	userID, err := primitive.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	group, err := ctrl.Service.RemoveMember(c.UserContext(), actor, groupID, userID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(fiber.Map{
		"message":           "Member removed successfully",
		"group":             group,
		"removed_member_id": userID,
	})
}

func actorAndGroup(c *fiber.Ctx, param string) (primitive.ObjectID, primitive.ObjectID, error) {
	actor, err := middleware.CurrentUserID(c)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	groupID, err := groupIDParam(c, param)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return actor, groupID, nil
}
