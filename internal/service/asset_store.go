package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/productapp/catalog-backend/internal/domain"
)

// DefaultMaxImageSize is the fallback image size cap when the configured
// limit is missing or non-positive.
const DefaultMaxImageSize = 5 * 1024 * 1024 // 5 MB

var (
	ErrFileTooBig      = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType = errors.New("invalid file type, only GIF, JPEG and PNG images are allowed")
	ErrUploadFailed    = errors.New("failed to store image")
	ErrDeleteFailed    = errors.New("failed to delete image")
	ErrAssetNotFound   = errors.New("image not found")

	allowedImageExtensions = map[string]struct{}{
		".gif":  {},
		".jpeg": {},
		".jpg":  {},
		".png":  {},
	}
	allowedImageContentTypes = map[string]struct{}{
		"image/gif":  {},
		"image/jpeg": {},
		"image/png":  {},
	}

	unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// ImageUpload carries one incoming image file through validation and storage.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// AssetStore persists uploaded product images and serves them back.
//
// Delete is idempotent and never touches the shared default image: passing
// the default reference or a reference whose asset is already gone succeeds.
type AssetStore interface {
	Save(ctx context.Context, upload ImageUpload) (domain.ImageRef, error)
	Delete(ctx context.Context, ref domain.ImageRef) error
	Exists(ctx context.Context, ref domain.ImageRef) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// validateImageUpload enforces the size cap and the image allow list. The
// declared metadata and the sniffed leading bytes must both look like an
// allowed image; the returned reader replays the sniffed prefix.
func validateImageUpload(upload ImageUpload, maxBytes int64) (io.Reader, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageSize
	}
	if upload.Size > maxBytes {
		return nil, "", ErrFileTooBig
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if _, ok := allowedImageExtensions[ext]; !ok {
		return nil, "", ErrInvalidFileType
	}
	declared := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if _, ok := allowedImageContentTypes[declared]; !ok {
		return nil, "", ErrInvalidFileType
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(upload.Reader, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, "", errors.Join(ErrUploadFailed, err)
	}
	buf = buf[:n]

	detected := strings.ToLower(strings.TrimSpace(http.DetectContentType(buf)))
	if _, ok := allowedImageContentTypes[detected]; !ok {
		return nil, "", ErrInvalidFileType
	}

	return io.MultiReader(strings.NewReader(string(buf)), upload.Reader), detected, nil
}

// newAssetKey derives a unique storage key from the original filename. The
// timestamp keeps directory listings roughly chronological; the random infix
// keeps same-millisecond uploads of the same filename from colliding.
func newAssetKey(filename string) string {
	base := unsafeKeyChars.ReplaceAllString(filepath.Base(filename), "-")
	base = strings.Trim(base, "-.")
	if base == "" || base == filepath.Ext(filename) {
		base = "image" + strings.ToLower(filepath.Ext(filename))
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], base)
}

// keyFromRef extracts the storage key from an uploaded image reference.
// Returns "" for the default image and for paths outside the upload space.
func keyFromRef(ref domain.ImageRef) string {
	if ref.IsDefault() {
		return ""
	}
	key := strings.TrimPrefix(ref.Path(), domain.UploadPathPrefix)
	if key == ref.Path() || key == "" {
		return ""
	}
	// Uploaded keys are flat names. Anything with a separator left over
	// is not ours to delete.
	if strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return ""
	}
	return key
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".gif":
		return "image/gif"
	case ".jpeg", ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
