// Package storage keeps uploaded images on local disk behind a public URL.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"unigram/internal/models"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir     = "/tmp/unigram/uploads"
	DefaultMaxUploadSize = 10 << 20
	// URLPrefix is where the server mounts the upload directory.
	URLPrefix = "/uploads"
)

var formatExt = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"webp": ".webp",
}

// LocalStore writes validated images under a directory and returns URLs
// rooted at a public base URL.
type LocalStore struct {
	dir     string
	baseURL string
	maxSize int64
}

// NewLocalStore returns a store rooted at dir. Empty or non-positive
// arguments fall back to defaults.
func NewLocalStore(dir, baseURL string, maxSize int64) *LocalStore {
	if dir == "" {
		dir = DefaultUploadDir
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

// Put validates data as an image and stores it as <prefix>/<uuid>.<ext>.
// Anything that does not decode as PNG, JPEG, GIF or WebP is a validation
// error.
func (s *LocalStore) Put(_ context.Context, prefix string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(data)) > s.maxSize {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxSize>>20))
	}
	if detected := http.DetectContentType(data); !strings.HasPrefix(detected, "image/") {
		return "", models.NewValidationError("Invalid image type")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	ext, ok := formatExt[format]
	if !ok {
		return "", models.NewValidationError("Unsupported image format")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", models.NewValidationError("Invalid image dimensions")
	}

	prefix = sanitizePrefix(prefix)
	rel := filepath.ToSlash(filepath.Join(prefix, uuid.NewString()+ext))
	abs := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}

	return s.baseURL + URLPrefix + "/" + rel, nil
}

func sanitizePrefix(prefix string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, prefix)
	if clean == "" {
		return "misc"
	}
	return clean
}
