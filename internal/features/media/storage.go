package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-social/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

const (
	GroupPictureFolder   = "group_pictures"
	ProfilePictureFolder = "profile_pictures"
	PostMediaFolder      = "post_media"
)

var ErrStorageDisabled = errors.New("media storage is not configured")

// Asset is an uploaded file on the media host
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Storage uploads and destroys assets on the media host.
// publicID is the full id including folders, e.g. "group_pictures/group_<id>".
// resourceType is one of ResourceImage, ResourceVideo or ResourceRaw.
type Storage interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (*Asset, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
}

// NewStorage returns a Cloudinary storage, or a disabled one when CLOUDINARY_URL is empty
func NewStorage(cfg *config.Config, log *zap.Logger) (Storage, error) {
	if cfg.CloudinaryURL == "" {
		log.Warn("CLOUDINARY_URL not set, media uploads are disabled")
		return disabledStorage{}, nil
	}
	cld, err := cloudinary.NewFromURL(cfg.CloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStorage{cld: cld, log: log}, nil
}

type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
	log *zap.Logger
}

func (s *CloudinaryStorage) Upload(ctx context.Context, file io.Reader, publicID string) (*Asset, error) {
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("upload %s: %s", publicID, res.Error.Message)
	}
	return &Asset{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (s *CloudinaryStorage) Destroy(ctx context.Context, publicID, resourceType string) error {
	if resourceType == "" {
		resourceType = ResourceImage
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("destroy %s: %s", publicID, res.Error.Message)
	}
	switch {
	case res.Result == "ok":
	case strings.EqualFold(res.Result, "not found"):
		s.log.Info("media already gone",
			zap.String("public_id", publicID), zap.String("resource_type", resourceType))
	default:
		s.log.Warn("unexpected destroy result",
			zap.String("public_id", publicID), zap.String("resource_type", resourceType), zap.String("result", res.Result))
	}
	return nil
}

type disabledStorage struct{}

func (disabledStorage) Upload(ctx context.Context, file io.Reader, publicID string) (*Asset, error) {
	return nil, ErrStorageDisabled
}

func (disabledStorage) Destroy(ctx context.Context, publicID, resourceType string) error {
	return nil
}

// DestroyURLs removes every Cloudinary asset referenced by urls. Failures are
// logged and skipped; the number of destroyed assets is returned.
func DestroyURLs(ctx context.Context, storage Storage, log *zap.Logger, urls ...string) int {
	destroyed := 0
	for _, u := range urls {
		publicID, ok := PublicIDFromURL(u)
		if !ok {
			continue
		}
		resourceType := ResourceTypeFromURL(u)
		if err := storage.Destroy(ctx, publicID, resourceType); err != nil {
			log.Error("failed to delete media",
				zap.String("public_id", publicID), zap.String("resource_type", resourceType), zap.Error(err))
			continue
		}
		destroyed++
	}
	return destroyed
}
