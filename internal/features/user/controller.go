package user

import (
	"errors"

	"go-social/internal/config"
	"go-social/internal/features/media"
	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserController struct {
	Service UserService
	Config  *config.Config
}

func NewUserController(service UserService, cfg *config.Config) *UserController {
	return &UserController{Service: service, Config: cfg}
}

// GetInfo godoc
// @Summary Get user profile info
// @Tags users
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} UserInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/users/{userId}/info [get]
func (ctrl *UserController) GetInfo(c *fiber.Ctx) error {
	userID, err := primitive.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	info, err := ctrl.Service.GetInfo(c.UserContext(), userID)
	if err != nil {
		return ctrl.fail(c, err)
	}
	return c.JSON(info)
}

// UpdateMyInfo godoc
// @Summary Update the current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Param input body ProfilePatch true "Profile fields"
// @Success 200 {object} UserInfo
// @Router /api/users/me/info [put]
func (ctrl *UserController) UpdateMyInfo(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var patch ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	info, err := ctrl.Service.UpdateInfo(c.UserContext(), userID, patch)
	if err != nil {
		return ctrl.fail(c, err)
	}
	return c.JSON(info)
}

// UploadProfilePicture godoc
// @Summary Upload the current user's profile picture
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image"
// @Success 200 {object} UserInfo
// @Router /api/users/me/profile-picture [post]
func (ctrl *UserController) UploadProfilePicture(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
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

	file, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Error reading file"})
	}
	defer file.Close()

	info, err := ctrl.Service.UploadProfilePicture(c.UserContext(), userID, file)
	if err != nil {
		return ctrl.fail(c, err)
	}
	return c.JSON(info)
}

func (ctrl *UserController) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrUserInfoNotFound), errors.Is(err, ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, media.ErrStorageDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
