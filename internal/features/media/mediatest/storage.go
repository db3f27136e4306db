// Package mediatest provides a recording media.Storage for tests.
package mediatest

import (
	"context"
	"io"
	"sync"

	"go-social/internal/features/media"
)

// Storage records uploads and destroys instead of talking to the media host
type Storage struct {
	mu        sync.Mutex
	Uploaded  []string
	Destroyed []string
	// DestroyedTypes holds the resource type of each Destroyed entry
	DestroyedTypes []string
	UploadErr      error
	DestroyErr     error
	URLTemplate    string
}

func (s *Storage) Upload(ctx context.Context, file io.Reader, publicID string) (*media.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	s.Uploaded = append(s.Uploaded, publicID)
	base := s.URLTemplate
	if base == "" {
		base = "https://res.cloudinary.com/test/image/upload/v1/"
	}
	return &media.Asset{URL: base + publicID + ".jpg", PublicID: publicID}, nil
}

func (s *Storage) Destroy(ctx context.Context, publicID, resourceType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DestroyErr != nil {
		return s.DestroyErr
	}
	s.Destroyed = append(s.Destroyed, publicID)
	s.DestroyedTypes = append(s.DestroyedTypes, resourceType)
	return nil
}

var _ media.Storage = (*Storage)(nil)
