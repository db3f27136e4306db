package media

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
)

var (
	ErrNotAnImage   = errors.New("please select an image file")
	ErrFileTooLarge = errors.New("file is too large")
	ErrNotMedia     = errors.New("only image and video files can be attached")
)

// ValidateImage checks the declared content type and size of an uploaded image
func ValidateImage(fh *multipart.FileHeader, maxSize int64) error {
	if fh == nil {
		return ErrNotAnImage
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return ErrNotAnImage
	}
	if fh.Size > maxSize {
		return fmt.Errorf("%w (max %dMB)", ErrFileTooLarge, maxSize>>20)
	}
	return nil
}

// ValidateMedia accepts images and videos up to maxSize
func ValidateMedia(fh *multipart.FileHeader, maxSize int64) error {
	ct := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "video/") {
		return ErrNotMedia
	}
	if fh.Size > maxSize {
		return fmt.Errorf("%w (max %dMB)", ErrFileTooLarge, maxSize>>20)
	}
	return nil
}
