package post

import (
	"errors"
	"io"

	"go-social/internal/config"
	"go-social/internal/features/group"
	"go-social/internal/features/media"
	"go-social/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxMediaFiles = 10

type PostController struct {
	Service PostService
	Config  *config.Config
	Log     *zap.Logger
}

func NewPostController(service PostService, cfg *config.Config, log *zap.Logger) *PostController {
	return &PostController{Service: service, Config: cfg, Log: log}
}

// CreatePost godoc
// @Summary Create a post in a group
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param groupId path string true "Group ID"
// @Param content formData string false "Text content"
// @Param media formData file false "Attached image or video"
// @Success 201 {object} PostView
// @Failure 403 {object} map[string]interface{}
// @Router /api/groups/{groupId}/posts [post]
func (ctrl *PostController) CreatePost(c *fiber.Ctx) error {
	actor, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	groupID, err := primitive.ObjectIDFromHex(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID format"})
	}

	content := c.FormValue("content")
	var files []io.Reader
	if form, err := c.MultipartForm(); err == nil {
		headers := form.File["media"]
		if len(headers) > maxMediaFiles {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Too many media files"})
		}
		for _, fh := range headers {
			if err := media.ValidateMedia(fh, ctrl.Config.MaxImageSize()); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			file, err := fh.Open()
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Error reading file"})
			}
			defer file.Close()
			files = append(files, file)
		}
	}

	post, err := ctrl.Service.CreatePost(c.UserContext(), actor, groupID, content, files)
	if err != nil {
		return ctrl.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// ListGroupPosts godoc
// @Summary List the posts of a group, newest first
// @Tags posts
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {array} PostView
// @Router /api/groups/{groupId}/posts [get]
func (ctrl *PostController) ListGroupPosts(c *fiber.Ctx) error {
	actor, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	groupID, err := primitive.ObjectIDFromHex(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID format"})
	}

	posts, err := ctrl.Service.ListGroupPosts(c.UserContext(), actor, groupID)
	if err != nil {
		return ctrl.fail(c, err)
	}
	return c.JSON(posts)
}

// DeletePost godoc
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/posts/{id} [delete]
func (ctrl *PostController) DeletePost(c *fiber.Ctx) error {
	actor, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post ID format"})
	}

	if err := ctrl.Service.DeletePost(c.UserContext(), actor, id); err != nil {
		return ctrl.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

func (ctrl *PostController) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, group.ErrGroupNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	case errors.Is(err, ErrPostNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	case errors.Is(err, ErrPrivateGroup), errors.Is(err, ErrDeleteForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrEmptyPost):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, media.ErrStorageDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		ctrl.Log.Error("Post request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
