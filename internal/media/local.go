package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes files below a directory on disk. Persisted names start with
// PathPrefix, which maps onto Dir.
type LocalStorage struct {
	Dir string
}

// NewLocalStorage creates the directory if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{Dir: dir}, nil
}

func (s *LocalStorage) file(name string) (string, error) {
	base := path.Base(name)
	if base == "." || base == "/" || strings.Contains(base, "..") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.Dir, base), nil
}

// Put writes r to a new file. Existing files are never overwritten.
func (s *LocalStorage) Put(_ context.Context, name string, r io.Reader, size int64, _ string) error {
	p, err := s.file(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && size > 0 && n > size {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(p)
		return err
	}
	return nil
}

// Delete removes the file; a file that is already gone is not an error.
func (s *LocalStorage) Delete(_ context.Context, name string) error {
	p, err := s.file(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL serves files from the /uploads/blogs/ route.
func (s *LocalStorage) URL(name string) string {
	return "/" + path.Join(PathPrefix, path.Base(name))
}
