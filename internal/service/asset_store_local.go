package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/productapp/catalog-backend/internal/domain"
	"github.com/productapp/catalog-backend/internal/observability"
)

// LocalAssetStore keeps uploaded images as flat files inside a single
// directory on the local filesystem.
type LocalAssetStore struct {
	dir      string
	maxBytes int64
}

func NewLocalAssetStore(dir string, maxBytes int64) (*LocalAssetStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageSize
	}
	return &LocalAssetStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalAssetStore) Save(ctx context.Context, upload ImageUpload) (domain.ImageRef, error) {
	body, _, err := validateImageUpload(upload, s.maxBytes)
	if err != nil {
		observability.RecordAssetStoreOperation(ctx, "local", "save", "rejected")
		return domain.ImageRef{}, err
	}

	key := newAssetKey(upload.Filename)
	dst := filepath.Join(s.dir, key)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		observability.RecordAssetStoreOperation(ctx, "local", "save", "error")
		return domain.ImageRef{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	// The declared size is client-supplied, so cap the copy as well.
	written, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		observability.RecordAssetStoreOperation(ctx, "local", "save", "error")
		return domain.ImageRef{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if written > s.maxBytes {
		os.Remove(dst)
		observability.RecordAssetStoreOperation(ctx, "local", "save", "rejected")
		return domain.ImageRef{}, ErrFileTooBig
	}

	observability.RecordAssetStoreOperation(ctx, "local", "save", "success")
	return domain.UploadedImage(domain.UploadPathPrefix + key), nil
}

func (s *LocalAssetStore) Delete(ctx context.Context, ref domain.ImageRef) error {
	key := keyFromRef(ref)
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		observability.RecordAssetStoreOperation(ctx, "local", "delete", "error")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	observability.RecordAssetStoreOperation(ctx, "local", "delete", "success")
	return nil
}

func (s *LocalAssetStore) Exists(ctx context.Context, ref domain.ImageRef) (bool, error) {
	key := keyFromRef(ref)
	if key == "" {
		return ref.IsDefault(), nil
	}
	_, err := os.Stat(filepath.Join(s.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalAssetStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	// Keys are flat names, so anything path-like is rejected outright.
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return nil, "", ErrAssetNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrAssetNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return f, contentTypeForKey(key), nil
}
