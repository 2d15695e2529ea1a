package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/productapp/catalog-backend/internal/domain"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func newLocalStoreForTest(t *testing.T) *LocalAssetStore {
	t.Helper()
	store, err := NewLocalAssetStore(t.TempDir(), DefaultMaxImageSize)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return store
}

func TestLocalAssetStoreSaveAndOpen(t *testing.T) {
	store := newLocalStoreForTest(t)

	ref, err := store.Save(context.Background(), ImageUpload{
		Filename:    "pen image.png",
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
		Reader:      bytes.NewReader(pngBytes),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref.IsDefault() {
		t.Fatalf("expected uploaded ref, got default")
	}
	if !strings.HasPrefix(ref.Path(), domain.UploadPathPrefix) {
		t.Fatalf("expected path under %q, got %q", domain.UploadPathPrefix, ref.Path())
	}

	key := strings.TrimPrefix(ref.Path(), domain.UploadPathPrefix)
	if strings.ContainsAny(key, "/\\ ") {
		t.Fatalf("expected flat sanitized key, got %q", key)
	}

	rc, contentType, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	if contentType != "image/png" {
		t.Fatalf("expected image/png, got %q", contentType)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read stored asset: %v", err)
	}
	if !bytes.Equal(data, pngBytes) {
		t.Fatalf("stored asset does not match upload")
	}
}

func TestLocalAssetStoreUniqueKeys(t *testing.T) {
	store := newLocalStoreForTest(t)

	seen := map[string]struct{}{}
	for i := 0; i < 3; i++ {
		ref, err := store.Save(context.Background(), ImageUpload{
			Filename:    "pen.png",
			ContentType: "image/png",
			Size:        int64(len(pngBytes)),
			Reader:      bytes.NewReader(pngBytes),
		})
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if _, dup := seen[ref.Path()]; dup {
			t.Fatalf("duplicate key for repeated filename: %q", ref.Path())
		}
		seen[ref.Path()] = struct{}{}
	}
}

func TestLocalAssetStoreValidation(t *testing.T) {
	store := newLocalStoreForTest(t)

	_, err := store.Save(context.Background(), ImageUpload{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Size:        4,
		Reader:      strings.NewReader("text"),
	})
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType for txt, got %v", err)
	}

	// Allowed extension but non-image bytes.
	_, err = store.Save(context.Background(), ImageUpload{
		Filename:    "fake.png",
		ContentType: "image/png",
		Size:        10,
		Reader:      strings.NewReader("plain text"),
	})
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType for spoofed png, got %v", err)
	}

	_, err = store.Save(context.Background(), ImageUpload{
		Filename:    "big.png",
		ContentType: "image/png",
		Size:        DefaultMaxImageSize + 1,
		Reader:      bytes.NewReader(pngBytes),
	})
	if !errors.Is(err, ErrFileTooBig) {
		t.Fatalf("expected ErrFileTooBig, got %v", err)
	}

	entries, err := os.ReadDir(storeDir(store))
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after rejected uploads, got %d", len(entries))
	}
}

func TestLocalAssetStoreDeleteIdempotent(t *testing.T) {
	store := newLocalStoreForTest(t)

	ref, err := store.Save(context.Background(), ImageUpload{
		Filename:    "pen.png",
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
		Reader:      bytes.NewReader(pngBytes),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Delete(context.Background(), ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if exists, _ := store.Exists(context.Background(), ref); exists {
		t.Fatalf("expected asset gone after delete")
	}
	// Repeat delete of a missing asset succeeds.
	if err := store.Delete(context.Background(), ref); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	// The default sentinel is never touched.
	if err := store.Delete(context.Background(), domain.DefaultImage()); err != nil {
		t.Fatalf("delete default: %v", err)
	}
}

func TestLocalAssetStoreOpenRejectsPathEscapes(t *testing.T) {
	store := newLocalStoreForTest(t)

	for _, key := range []string{"", "..", "../secret", "a/b.png"} {
		if _, _, err := store.Open(context.Background(), key); !errors.Is(err, ErrAssetNotFound) {
			t.Fatalf("key %q: expected ErrAssetNotFound, got %v", key, err)
		}
	}
}

func storeDir(s *LocalAssetStore) string { return filepath.Clean(s.dir) }
