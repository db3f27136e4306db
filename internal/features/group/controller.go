package group

import (
	"errors"

	"go-social/internal/config"
	"go-social/internal/features/media"
	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type GroupController struct {
	Service GroupService
	Config  *config.Config
	Log     *zap.Logger
}

func NewGroupController(service GroupService, cfg *config.Config, log *zap.Logger) *GroupController {
	return &GroupController{Service: service, Config: cfg, Log: log}
}

// GetAllGroups godoc
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {array} GroupView
// @Router /api/groups [get]
func (ctrl *GroupController) GetAllGroups(c *fiber.Ctx) error {
	groups, err := ctrl.Service.GetAllGroups(c.UserContext())
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(groups)
}

// GetGroupByID godoc
// @Summary Get a group with members and pending requests
// @Tags groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} GroupView
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/groups/{id} [get]
func (ctrl *GroupController) GetGroupByID(c *fiber.Ctx) error {
	id, err := groupIDParam(c, "id")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	group, err := ctrl.Service.GetGroupByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(group)
}

// CreateGroup godoc
// @Summary Create a group
// @Tags groups
// @Accept json
// @Produce json
// @Param input body CreateGroupRequest true "Group"
// @Success 201 {object} GroupView
// @Failure 400 {object} map[string]interface{}
// @Router /api/groups [post]
func (ctrl *GroupController) CreateGroup(c *fiber.Ctx) error {
	actor, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := ctrl.Service.CreateGroup(c.UserContext(), actor, req)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// UpdateGroup godoc
// @Summary Update a group
// @Tags groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param input body UpdateGroupRequest true "Fields to change"
// @Success 200 {object} GroupView
// @Failure 403 {object} map[string]interface{}
// @Router /api/groups/{id} [put]
func (ctrl *GroupController) UpdateGroup(c *fiber.Ctx) error {
	actor, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	id, err := groupIDParam(c, "id")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	var req UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := ctrl.Service.UpdateGroup(c.UserContext(), actor, id, req)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(group)
}

// DeleteGroup godoc
// @Summary Delete a group with its posts and media
// @Tags groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/groups/{id} [delete]
func (ctrl *GroupController) DeleteGroup(c *fiber.Ctx) error {
	actor, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	id, err := groupIDParam(c, "id")
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}

	if err := ctrl.Service.DeleteGroup(c.UserContext(), actor, id); err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Group deleted successfully"})
}

// GetGroupsByCreator godoc
// @Summary List groups created by a user
// @Tags groups
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} GroupView
// @Router /api/groups/creator/{userId} [get]
func (ctrl *GroupController) GetGroupsByCreator(c *fiber.Ctx) error {
	userID, err := primitive.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	groups, err := ctrl.Service.GetGroupsByCreator(c.UserContext(), userID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(groups)
}

// GetGroupsByMember godoc
// @Summary List groups a user belongs to
// @Tags groups
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} GroupView
// @Router /api/groups/member/{userId} [get]
func (ctrl *GroupController) GetGroupsByMember(c *fiber.Ctx) error {
	userID, err := primitive.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	groups, err := ctrl.Service.GetGroupsByMember(c.UserContext(), userID)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(groups)
}

// UploadGroupPicture godoc
// @Summary Upload a group picture
// @Tags groups
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image"
// @Param group_id formData string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/groups/upload-group-picture [post]
func (ctrl *GroupController) UploadGroupPicture(c *fiber.Ctx) error {
	actor, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No image uploaded"})
	}
	if err := media.ValidateImage(fh, ctrl.Config.MaxImageSize()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	groupID := c.FormValue("group_id")
	if groupID == "" {
		groupID = c.FormValue("groupId")
	}

	file, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Error reading file"})
	}
	defer file.Close()

	asset, err := ctrl.Service.UploadGroupPicture(c.UserContext(), actor, groupID, file)
	if err != nil {
		return respondError(c, ctrl.Log, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"image_url": asset.URL,
		"url":       asset.URL,
		"public_id": asset.PublicID,
	})
}

func groupIDParam(c *fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidGroupID
	}
	return id, nil
}

// respondError maps group errors to their status; anything else is a 500
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var groupErr *Error
	if errors.As(err, &groupErr) {
		body := fiber.Map{"error": groupErr.Message}
		switch groupErr.Kind {
		case KindNotFound:
			return c.Status(fiber.StatusNotFound).JSON(body)
		case KindForbidden:
			if groupErr == ErrPrivateMembers {
				body["is_private"] = true
			}
			return c.Status(fiber.StatusForbidden).JSON(body)
		default:
			return c.Status(fiber.StatusBadRequest).JSON(body)
		}
	}
	if errors.Is(err, middleware.ErrUnauthenticated) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	if errors.Is(err, media.ErrStorageDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error("Group request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
