package group

import (
	"go-social/internal/config"
	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type GroupApi struct {
	groupController      *GroupController
	membershipController *MembershipController
	config               *config.Config
}

func NewGroupApi(groupController *GroupController, membershipController *MembershipController, config *config.Config) *GroupApi {
	return &GroupApi{
		groupController:      groupController,
		membershipController: membershipController,
		config:               config,
	}
}

func (h *GroupApi) Setup(app *fiber.App) {
	groups := app.Group("/api/groups", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireUser())

	groups.Get("/", h.groupController.GetAllGroups)
	groups.Post("/", h.groupController.CreateGroup)
	groups.Post("/upload-group-picture", h.groupController.UploadGroupPicture)
	groups.Get("/creator/:userId", h.groupController.GetGroupsByCreator)
	groups.Get("/member/:userId", h.groupController.GetGroupsByMember)
	groups.Get("/:id", h.groupController.GetGroupByID)
	groups.Put("/:id", h.groupController.UpdateGroup)
	groups.Delete("/:id", h.groupController.DeleteGroup)

	groups.Post("/:id/join", h.membershipController.JoinGroup)
	groups.Post("/:id/leave", h.membershipController.LeaveGroup)
	groups.Post("/:id/request", h.membershipController.RequestJoin)
	groups.Post("/:id/cancel-request", h.membershipController.CancelJoinRequest)
	groups.Post("/:id/approve", h.membershipController.ApproveJoinRequest)
	groups.Post("/:id/reject", h.membershipController.RejectJoinRequest)

	groups.Get("/:groupId/members", h.membershipController.GetGroupMembers)
	groups.Get("/:groupId/members/export", h.membershipController.ExportMembers)
	groups.Delete("/:groupId/members/:userId", h.membershipController.RemoveMember)
}
