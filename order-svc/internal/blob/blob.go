// Package blob stores uploaded images on local disk and serves them under
// /uploads.
package blob

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

var (
	ErrInvalidPath = errors.New("invalid blob path")
	ErrTooLarge    = errors.New("blob is too large")
)

// MaxImageSize caps a single upload.
const MaxImageSize = 10 << 20

type FileStore struct {
	Root    string
	BaseURL string
}

func NewFileStore(root, baseURL string) *FileStore {
	return &FileStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *FileStore) resolve(handle string) (string, error) {
	clean := path.Clean("/" + handle)
	if clean == "/" || strings.Contains(handle, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, handle)
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

// Upload writes r to a temp file and renames it into place, replacing any
// previous blob at the same path. The handle is the path itself.
func (s *FileStore) Upload(ctx context.Context, p string, r io.Reader) (string, error) {
	dest, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, MaxImageSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	if n > MaxImageSize {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, MaxImageSize)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	return path.Clean(p), nil
}

func (s *FileStore) URL(handle string) string {
	return s.BaseURL + "/uploads/" + strings.TrimLeft(path.Clean("/"+handle), "/")
}

// Delete is a no-op for a blob that does not exist.
func (s *FileStore) Delete(ctx context.Context, handle string) error {
	dest, err := s.resolve(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
