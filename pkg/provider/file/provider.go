// Package file implements the store interface for a local directory.
//
// Keys are treated as relative paths under BaseDir. This store backs
// mirroring to locally mounted volumes and keeps the mirror layer
// testable without cloud credentials.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/XRay205/tarkov-data/pkg/provider"
)

// Store implements provider.Store for local filesystem paths.
type Store struct {
	baseDir string
}

var _ provider.Store = (*Store)(nil)

type Config struct {
	BaseDir string
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseDir) == "" {
		return fmt.Errorf("base dir is required")
	}
	return nil
}

func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{baseDir: filepath.Clean(cfg.BaseDir)}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) Head(ctx context.Context, key string) (*provider.ObjectMeta, error) {
	_ = ctx
	full, err := s.fullPath(key)
	if err != nil {
		return nil, s.wrapError("Head", key, err)
	}
	st, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &provider.StoreError{Op: "Head", Store: provider.StoreFile, Key: key, Err: provider.ErrNotFound}
		}
		return nil, s.wrapError("Head", key, err)
	}
	if st.IsDir() {
		return nil, &provider.StoreError{Op: "Head", Store: provider.StoreFile, Key: key, Err: provider.ErrNotFound}
	}

	return &provider.ObjectMeta{
		Key:          strings.TrimPrefix(key, "/"),
		Size:         st.Size(),
		LastModified: st.ModTime(),
	}, nil
}

func (s *Store) PutObject(ctx context.Context, key string, body io.Reader, contentLength int64) error {
	_ = ctx
	_ = contentLength
	full, err := s.fullPath(key)
	if err != nil {
		return s.wrapError("PutObject", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return s.wrapError("PutObject", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), "tarkovsync-put-*")
	if err != nil {
		return s.wrapError("PutObject", key, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		return s.wrapError("PutObject", key, err)
	}
	if err := tmp.Close(); err != nil {
		return s.wrapError("PutObject", key, err)
	}

	if err := os.Rename(tmpName, full); err != nil {
		return s.wrapError("PutObject", key, err)
	}
	return nil
}

func (s *Store) fullPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "/")
	// Prevent path traversal.
	clean := filepath.Clean("/" + key)
	clean = strings.TrimPrefix(clean, "/")
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid key path")
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

func (s *Store) wrapError(op, key string, err error) error {
	wrapped := &provider.StoreError{Op: op, Store: provider.StoreFile, Key: key, Err: err}
	if err == nil {
		wrapped.Err = fmt.Errorf("unknown error")
	}
	// Normalize common filesystem errors to store sentinels.
	if os.IsNotExist(err) {
		wrapped.Err = provider.ErrNotFound
	}
	if os.IsPermission(err) {
		wrapped.Err = provider.ErrAccessDenied
	}
	return wrapped
}
