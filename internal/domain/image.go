package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DefaultImagePath is the sentinel served when a product has no uploaded
// image. It lives in the bundled static image directory and is never
// deleted by the asset store.
const DefaultImagePath = "/images/default-product.png"

// UploadPathPrefix is the URL prefix under which stored image keys are
// served. An uploaded ImageRef path is always UploadPathPrefix + key.
const UploadPathPrefix = "/uploads/"

// ImageRef points a product at its image: either an uploaded asset path
// ("/uploads/<key>") or the default sentinel. The zero value is the
// sentinel, so a freshly constructed Product already satisfies the
// "image is never empty" invariant.
type ImageRef struct {
	path string
}

func DefaultImage() ImageRef { return ImageRef{} }

func UploadedImage(path string) ImageRef {
	if path == "" || path == DefaultImagePath {
		return ImageRef{}
	}
	return ImageRef{path: path}
}

func (r ImageRef) IsDefault() bool { return r.path == "" }

// Path always resolves to a servable path.
func (r ImageRef) Path() string {
	if r.path == "" {
		return DefaultImagePath
	}
	return r.path
}

func (r ImageRef) String() string { return r.Path() }

func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Path())
}

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = UploadedImage(s)
	return nil
}

// Value / Scan keep the persisted column a plain path string, matching the
// layout produced by earlier versions of this service.
func (r ImageRef) Value() (driver.Value, error) {
	return r.Path(), nil
}

func (r *ImageRef) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = ImageRef{}
		return nil
	case string:
		*r = UploadedImage(v)
		return nil
	case []byte:
		*r = UploadedImage(string(v))
		return nil
	default:
		return fmt.Errorf("scan ImageRef: unsupported type %T", src)
	}
}
