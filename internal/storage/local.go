// Package storage persists uploaded binary objects.
package storage

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

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Store saves objects under a key and reports the public URL.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore 将文件写入本地目录，并通过静态路由对外暴露。
type LocalStore struct {
	dir     string
	urlPath string
}

// NewLocalStore creates the store; dir is created lazily on first Put.
func NewLocalStore(dir, urlPath string) *LocalStore {
	if strings.TrimSpace(dir) == "" {
		dir = "data/uploads"
	}
	urlPath = "/" + strings.Trim(strings.TrimSpace(urlPath), "/")
	return &LocalStore{dir: dir, urlPath: urlPath}
}

// URL maps a key to its public path.
func (s *LocalStore) URL(key string) string {
	return path.Join(s.urlPath, key)
}

func (s *LocalStore) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, key), nil
}

// Put writes r to the key, replacing any previous object.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return s.URL(key), nil
}

// Delete removes the object. Missing objects are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}
