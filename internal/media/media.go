// Package media validates featured-image uploads and stores them under generated names.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxBytes is the largest accepted upload.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// PathPrefix is prepended to stored file names to form the persisted path.
const PathPrefix = "uploads/blogs"

var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

// Validation errors returned before anything is written to storage.
var (
	ErrInvalidFormat = errors.New("invalid image format")
	ErrTooLarge      = errors.New("image too large")
)

// Storage persists uploaded files addressed by their persisted path.
type Storage interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// Uploader validates and stores featured images.
type Uploader struct {
	storage  Storage
	maxBytes int64
	newName  func(ext string) string
}

// NewUploader creates an Uploader. A maxBytes of zero means DefaultMaxBytes.
func NewUploader(storage Storage, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{
		storage:  storage,
		maxBytes: maxBytes,
		newName: func(ext string) string {
			return uuid.NewString() + "." + ext
		},
	}
}

// FormatSize renders a byte count the way limits are shown to users: "5MB", "1.5MB", "512KB".
func FormatSize(n int64) string {
	const kb, mb = 1024, 1024 * 1024
	switch {
	case n >= mb:
		return strconv.FormatFloat(float64(n)/mb, 'f', -1, 64) + "MB"
	case n >= kb:
		return strconv.FormatFloat(float64(n)/kb, 'f', -1, 64) + "KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}

// MaxBytes is the size limit applied by Validate.
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Validate checks extension and size. It never touches storage.
func (u *Uploader) Validate(h *multipart.FileHeader) error {
	if _, err := extension(h.Filename); err != nil {
		return err
	}
	if h.Size > u.maxBytes {
		return ErrTooLarge
	}
	return nil
}

// Save validates h and writes it under a fresh unique name, returning the persisted path.
func (u *Uploader) Save(ctx context.Context, h *multipart.FileHeader) (string, error) {
	if err := u.Validate(h); err != nil {
		return "", err
	}
	ext, _ := extension(h.Filename)

	f, err := h.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	name := path.Join(PathPrefix, u.newName(ext))
	contentType := h.Header.Get("Content-Type")
	// Guard against a header that under-reports the real size.
	body := io.LimitReader(f, u.maxBytes+1)
	if err := u.storage.Put(ctx, name, body, h.Size, contentType); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return name, nil
}

// Delete removes a previously stored file. Empty paths are ignored.
func (u *Uploader) Delete(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	return u.storage.Delete(ctx, name)
}

// URL returns the public URL of a stored file.
func (u *Uploader) URL(name string) string {
	if name == "" {
		return ""
	}
	return u.storage.URL(name)
}

func extension(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExtensions[ext] {
		return "", ErrInvalidFormat
	}
	return ext, nil
}
