// Package media stores post images on the external object host.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/localtourx-api/internal/domain"
	"github.com/localtourx-api/internal/pkg/id"
)

// MaxImageSize is the largest accepted upload in bytes.
const MaxImageSize = 5 << 20

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	OwnerID     string
}

type Service interface {
	// Upload stores an image and returns its media reference (public URL).
	Upload(ctx context.Context, input UploadInput) (string, error)
	Delete(ctx context.Context, ref string) error
	// Owns reports whether ref names an object uploaded for ownerID.
	Owns(ref, ownerID string) bool
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
	Key(ref string) (string, error)
}

type service struct {
	store objectStore
}

func NewService(store objectStore) Service {
	return &service{store: store}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (string, error) {
	data, err := io.ReadAll(io.LimitReader(input.Reader, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", domain.ErrBadRequest)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("photo is empty: %w", domain.ErrValidation)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("photo must be at most 5 MB: %w", domain.ErrValidation)
	}
	// The declared type is client-supplied; the sniffed one decides.
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("photo must be an image, got %s: %w", contentType, domain.ErrValidation)
	}

	key := ownerPrefix(input.OwnerID) + id.New() + imageExt(input.Filename, contentType)
	ref, err := s.store.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("upload photo: %v: %w", err, domain.ErrUpstream)
	}
	return ref, nil
}

func (s *service) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return s.store.Delete(ctx, ref)
}

func (s *service) Owns(ref, ownerID string) bool {
	if ref == "" || ownerID == "" {
		return false
	}
	key, err := s.store.Key(ref)
	if err != nil || path.Clean(key) != key {
		return false
	}
	name, ok := strings.CutPrefix(key, ownerPrefix(ownerID))
	return ok && name != "" && !strings.Contains(name, "/")
}

func ownerPrefix(ownerID string) string {
	return "posts/" + sanitizeFilename(ownerID) + "/"
}

// imageExt keeps the client's extension when it is a plain image suffix and
// otherwise derives one from the sniffed type.
func imageExt(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(sanitizeFilename(filename)))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return ext
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ""
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
