// Package media validates and stores uploaded images.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

// Upload limits.
const (
	MaxFileSize  = 5 << 20 // bytes
	MinDimension = 100     // pixels
	MaxDimension = 5000    // pixels
)

// Directories of the stored uploads.
const (
	DirProducts = "products"
	DirBlog     = "blog"
	DirAvatars  = "avatars"
)

var (
	extensions   = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	contentTypes = map[string]bool{"image/jpeg": true, "image/png": true}
)

// A ValidationError describes why an upload was rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError returns true if err is a rejected upload.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func rejected(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validate checks the uploaded file and returns its normalized extension.
func Validate(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", rejected("The uploaded file is empty.")
	}

	if len(data) > MaxFileSize {
		return "", rejected("The file size (%.2f MB) exceeds the maximum allowed size of 5 MB.", float64(len(data))/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !extensions[ext] {
		return "", rejected("Unsupported file format. Allowed formats: .jpg, .jpeg, .png")
	}

	if !contentTypes[http.DetectContentType(data)] {
		return "", rejected("The file must be a JPEG or PNG image.")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", rejected("The uploaded image could not be processed. Make sure the file is not corrupted.")
	}

	if cfg.Width < MinDimension || cfg.Height < MinDimension {
		return "", rejected("The image is too small. Minimum size: %dx%d pixels.", MinDimension, MinDimension)
	}

	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return "", rejected("The image is too large. Maximum size: %dx%d pixels.", MaxDimension, MaxDimension)
	}

	return ext, nil
}

// A Storage writes uploads under a root directory.
type Storage struct {
	root string
}

// NewStorage returns a new Storage rooted at the given path.
func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

// Root returns the directory holding the uploads.
func (s *Storage) Root() string {
	return s.root
}

// Save validates the uploaded file then stores it in dir.
// It returns the path of the stored file relative to the storage root.
func (s *Storage) Save(dir string, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxFileSize {
		return "", rejected("The file size (%.2f MB) exceeds the maximum allowed size of 5 MB.", float64(fh.Size)/(1<<20))
	}

	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "could not open upload")
	}
	defer f.Close()

	// One extra byte is enough to detect an oversized body.
	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return "", errors.Wrap(err, "could not read upload")
	}

	return s.Write(dir, fh.Filename, data)
}

// Write validates the data then stores it in dir.
func (s *Storage) Write(dir, filename string, data []byte) (string, error) {
	ext, err := Validate(filename, data)
	if err != nil {
		return "", err
	}

	if err = os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		return "", errors.Wrap(err, "could not create media directory")
	}

	name := filepath.Join(dir, uuid.Must(uuid.NewV4()).String()+ext)
	if err = os.WriteFile(filepath.Join(s.root, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, "could not write media")
	}

	return filepath.ToSlash(name), nil
}

// Remove deletes a previously stored file. Missing files are ignored.
func (s *Storage) Remove(name string) error {
	if name == "" {
		return nil
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "could not remove media")
	}
	return nil
}
