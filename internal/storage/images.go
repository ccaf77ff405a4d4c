// Package storage persists uploaded image assets on local disk and serves
// as the collaborator the feed service delegates asset I/O to.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// extensions maps the accepted MIME types to the stored file extension.
// Anything else is declined, which the caller treats as "no image provided".
var extensions = map[string]string{
	"image/jpeg": ".jpeg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
}

// ErrUnsupportedType reports an upload whose MIME type is not an accepted image.
var ErrUnsupportedType = fmt.Errorf("unsupported image type")

// ImageStore writes uploaded images under a directory with generated
// unique names and removes them on post deletion.
type ImageStore struct {
	dir string
}

// NewImageStore creates the store, making the directory when missing.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Save stores the uploaded file and returns its public reference of the
// form "images/<name>". Uploads with a MIME type outside {jpeg, jpg, png}
// are rejected with ErrUnsupportedType.
func (s *ImageStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext, ok := extensions[header.Header.Get("Content-Type")]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return "images/" + name, nil
}

// Remove deletes the stored file behind a reference previously returned by
// Save. Unknown references are rejected so a crafted path cannot escape
// the image directory.
func (s *ImageStore) Remove(ref string) error {
	name := filepath.Base(ref)
	if name == "." || name == "/" || name == "" {
		return fmt.Errorf("invalid image reference: %q", ref)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

// Dir returns the directory images are stored under.
func (s *ImageStore) Dir() string {
	return s.dir
}
