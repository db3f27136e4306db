package media

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"slices"
	"testing"

	"go.uber.org/zap"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{
			name:   "versioned nested folder",
			url:    "https://res.cloudinary.com/demo/image/upload/v1712345/group_pictures/group_abc.jpg",
			want:   "group_pictures/group_abc",
			wantOK: true,
		},
		{
			name:   "no version segment",
			url:    "https://res.cloudinary.com/demo/image/upload/post_media/x1/photo.png",
			want:   "post_media/x1/photo",
			wantOK: true,
		},
		{
			name:   "multiple dots keep text before the first",
			url:    "https://res.cloudinary.com/demo/image/upload/v1/pics/a.b.c.webp",
			want:   "pics/a",
			wantOK: true,
		},
		{
			name:   "video asset",
			url:    "https://res.cloudinary.com/demo/video/upload/v1/post_media/x.mp4",
			want:   "post_media/x",
			wantOK: true,
		},
		{
			name:   "single segment after upload is not enough",
			url:    "https://res.cloudinary.com/demo/image/upload/photo.png",
			wantOK: false,
		},
		{
			name:   "other host",
			url:    "https://example.com/image/upload/v1/a/b.png",
			wantOK: false,
		},
		{
			name:   "no upload segment",
			url:    "https://res.cloudinary.com/demo/image/fetch/v1/a.png",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PublicIDFromURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("PublicIDFromURL(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("PublicIDFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestResourceTypeFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1/a/b.jpg", ResourceImage},
		{"https://res.cloudinary.com/demo/video/upload/v1/post_media/x.mp4", ResourceVideo},
		{"https://res.cloudinary.com/demo/raw/upload/v1/docs/file.pdf", ResourceRaw},
		{"https://res.cloudinary.com/demo/upload/v1/a/b.jpg", ResourceImage},
		{"https://cdn.example.com/three.jpg", ResourceImage},
	}
	for _, tt := range tests {
		if got := ResourceTypeFromURL(tt.url); got != tt.want {
			t.Errorf("ResourceTypeFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

type recordingStorage struct {
	destroyed []string
	types     []string
	failOn    string
}

func (s *recordingStorage) Upload(ctx context.Context, file io.Reader, publicID string) (*Asset, error) {
	return &Asset{PublicID: publicID}, nil
}

func (s *recordingStorage) Destroy(ctx context.Context, publicID, resourceType string) error {
	if publicID == s.failOn {
		return errors.New("boom")
	}
	s.destroyed = append(s.destroyed, publicID)
	s.types = append(s.types, resourceType)
	return nil
}

func TestDestroyURLsSkipsForeignAndFailures(t *testing.T) {
	storage := &recordingStorage{failOn: "b/two"}
	n := DestroyURLs(context.Background(), storage, zap.NewNop(),
		"https://res.cloudinary.com/d/image/upload/v9/a/one.jpg",
		"https://res.cloudinary.com/d/image/upload/v9/b/two.jpg",
		"https://cdn.example.com/three.jpg",
	)
	if n != 1 {
		t.Errorf("destroyed = %d, want 1", n)
	}
	if len(storage.destroyed) != 1 || storage.destroyed[0] != "a/one" {
		t.Errorf("destroyed ids = %v", storage.destroyed)
	}
}

func TestDestroyURLsPassesResourceType(t *testing.T) {
	storage := &recordingStorage{}
	n := DestroyURLs(context.Background(), storage, zap.NewNop(),
		"https://res.cloudinary.com/d/image/upload/v9/post_media/pic.jpg",
		"https://res.cloudinary.com/d/video/upload/v9/post_media/clip.mp4",
	)
	if n != 2 {
		t.Fatalf("destroyed = %d, want 2", n)
	}
	if !slices.Equal(storage.destroyed, []string{"post_media/pic", "post_media/clip"}) {
		t.Errorf("destroyed ids = %v", storage.destroyed)
	}
	if !slices.Equal(storage.types, []string{ResourceImage, ResourceVideo}) {
		t.Errorf("resource types = %v, want image then video", storage.types)
	}
}

func TestValidateImage(t *testing.T) {
	header := func(ct string, size int64) *multipart.FileHeader {
		return &multipart.FileHeader{Header: textproto.MIMEHeader{"Content-Type": {ct}}, Size: size}
	}
	if err := ValidateImage(header("image/png", 1024), 5<<20); err != nil {
		t.Errorf("valid image rejected: %v", err)
	}
	if err := ValidateImage(header("application/pdf", 1024), 5<<20); !errors.Is(err, ErrNotAnImage) {
		t.Errorf("pdf error = %v, want ErrNotAnImage", err)
	}
	if err := ValidateImage(header("image/jpeg", 6<<20), 5<<20); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("large image error = %v, want ErrFileTooLarge", err)
	}
}

func TestValidateMedia(t *testing.T) {
	header := func(ct string, size int64) *multipart.FileHeader {
		return &multipart.FileHeader{Header: textproto.MIMEHeader{"Content-Type": {ct}}, Size: size}
	}
	if err := ValidateMedia(header("video/mp4", 1024), 5<<20); err != nil {
		t.Errorf("video rejected: %v", err)
	}
	if err := ValidateMedia(header("text/plain", 10), 5<<20); !errors.Is(err, ErrNotMedia) {
		t.Errorf("text error = %v, want ErrNotMedia", err)
	}
	if err := ValidateMedia(header("image/gif", 6<<20), 5<<20); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("large file error = %v, want ErrFileTooLarge", err)
	}
}

func TestConventionalPublicIDs(t *testing.T) {
	if got := GroupPicturePublicID("42"); got != "group_pictures/group_42" {
		t.Errorf("GroupPicturePublicID = %q", got)
	}
	if got := ProfilePicturePublicID("7"); got != "profile_pictures/user_7" {
		t.Errorf("ProfilePicturePublicID = %q", got)
	}
}
