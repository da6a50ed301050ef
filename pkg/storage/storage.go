// Package storage keeps receipt files on local disk under a configurable
// base directory. Each transaction owns at most one receipt; storing a new
// one replaces the previous file.
package storage

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// MaxReceiptSize caps receipt uploads at 5 MB.
const MaxReceiptSize = 5 * 1024 * 1024

// maxImageDim bounds the longest edge of stored image receipts. Phone
// photos routinely arrive at 4000px and up; nothing downstream needs that.
const maxImageDim = 2000

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ErrInvalidFile is returned when an upload is not an accepted receipt
// (wrong content type or too large).
var ErrInvalidFile = errors.New("invalid receipt file")

// Store is the receipt file collaborator used by the lifecycle manager.
type Store interface {
	// Save writes the upload and returns its stored path.
	Save(fh *multipart.FileHeader) (string, error)
	// Replace removes oldPath (if any) after storing the new upload.
	Replace(oldPath string, fh *multipart.FileHeader) (string, error)
	// URLFor maps a stored path to the URL it is served from.
	URLFor(path string) string
	// Remove deletes a stored file.
	Remove(path string) error
}

// LocalStore implements Store on the local filesystem.
type LocalStore struct {
	BaseDir string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "receipts"), 0755); err != nil {
		return nil, err
	}
	return &LocalStore{BaseDir: baseDir}, nil
}

// Validate checks size and content type without writing anything.
func Validate(fh *multipart.FileHeader) error {
	if fh.Size > MaxReceiptSize {
		return fmt.Errorf("%w: file too large (max 5MB)", ErrInvalidFile)
	}
	ct := fh.Header.Get("Content-Type")
	if !allowedContentTypes[ct] {
		return fmt.Errorf("%w: content type %q not allowed", ErrInvalidFile, ct)
	}
	return nil
}

func (s *LocalStore) Save(fh *multipart.FileHeader) (string, error) {
	if err := Validate(fh); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	relPath := filepath.Join("receipts", uuid.NewString()+ext)
	fullPath := filepath.Join(s.BaseDir, relPath)

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	if _, err := out.ReadFrom(src); err != nil {
		out.Close()
		_ = os.Remove(fullPath)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", err
	}

	if strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		// best effort: an undecodable image is kept as uploaded
		_ = normalizeImage(fullPath)
	}
	return filepath.ToSlash(relPath), nil
}

func (s *LocalStore) Replace(oldPath string, fh *multipart.FileHeader) (string, error) {
	relPath, err := s.Save(fh)
	if err != nil {
		return "", err
	}
	if oldPath != "" {
		_ = s.Remove(oldPath)
	}
	return relPath, nil
}

func (s *LocalStore) URLFor(path string) string {
	if path == "" {
		return ""
	}
	return "/files/" + path
}

func (s *LocalStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	return os.Remove(filepath.Join(s.BaseDir, filepath.FromSlash(path)))
}

// normalizeImage downscales oversized image receipts in place.
func normalizeImage(fullPath string) error {
	img, err := imaging.Open(fullPath, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() <= maxImageDim && b.Dy() <= maxImageDim {
		return nil
	}
	if b.Dx() >= b.Dy() {
		img = imaging.Resize(img, maxImageDim, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, maxImageDim, imaging.Lanczos)
	}
	return imaging.Save(img, fullPath)
}
