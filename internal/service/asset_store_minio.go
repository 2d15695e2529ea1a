package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/productapp/catalog-backend/internal/domain"
	"github.com/productapp/catalog-backend/internal/observability"
)

var ErrBucketCreationFailed = errors.New("failed to create storage bucket")

// MinioAssetStore implements AssetStore against MinIO or any S3-compatible
// object store. Image keys stay identical to the local backend, so the
// persisted ImageRef paths do not depend on the configured backend.
type MinioAssetStore struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
	initOnce sync.Once
	initErr  error
}

// NewMinioAssetStore creates a MinIO-backed asset store. Bucket creation is
// deferred until the first operation to avoid blocking app startup.
func NewMinioAssetStore(endpoint, accessKey, secretKey, bucket string, useSSL bool, maxBytes int64) (*MinioAssetStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageSize
	}
	return &MinioAssetStore{client: client, bucket: bucket, maxBytes: maxBytes}, nil
}

func (s *MinioAssetStore) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucketExists(ctx)
	})
	return s.initErr
}

func (s *MinioAssetStore) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

func (s *MinioAssetStore) Save(ctx context.Context, upload ImageUpload) (domain.ImageRef, error) {
	body, detected, err := validateImageUpload(upload, s.maxBytes)
	if err != nil {
		observability.RecordAssetStoreOperation(ctx, "minio", "save", "rejected")
		return domain.ImageRef{}, err
	}

	if err := s.lazyInit(ctx); err != nil {
		observability.RecordAssetStoreOperation(ctx, "minio", "save", "error")
		return domain.ImageRef{}, err
	}

	key := newAssetKey(upload.Filename)
	metadata := map[string]string{
		"Detected-Content-Type": detected,
		"Original-Filename":     upload.Filename,
		"Uploaded-At":           time.Now().UTC().Format(time.RFC3339),
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, body, upload.Size, minio.PutObjectOptions{
		ContentType:  detected,
		UserMetadata: metadata,
	})
	if err != nil {
		observability.RecordAssetStoreOperation(ctx, "minio", "save", "error")
		return domain.ImageRef{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	observability.RecordAssetStoreOperation(ctx, "minio", "save", "success")
	return domain.UploadedImage(domain.UploadPathPrefix + key), nil
}

func (s *MinioAssetStore) Delete(ctx context.Context, ref domain.ImageRef) error {
	key := keyFromRef(ref)
	if key == "" {
		return nil
	}
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	// RemoveObject succeeds for missing keys, which keeps deletes idempotent.
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		observability.RecordAssetStoreOperation(ctx, "minio", "delete", "error")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	observability.RecordAssetStoreOperation(ctx, "minio", "delete", "success")
	return nil
}

func (s *MinioAssetStore) Exists(ctx context.Context, ref domain.ImageRef) (bool, error) {
	key := keyFromRef(ref)
	if key == "" {
		return ref.IsDefault(), nil
	}
	if err := s.lazyInit(ctx); err != nil {
		return false, err
	}
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MinioAssetStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if key == "" {
		return nil, "", ErrAssetNotFound
	}
	if err := s.lazyInit(ctx); err != nil {
		return nil, "", err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	// GetObject is lazy, so surface NoSuchKey before handing the stream out.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, "", ErrAssetNotFound
		}
		return nil, "", err
	}
	contentType := stat.ContentType
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	return obj, contentType, nil
}
