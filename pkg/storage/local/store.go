// Package local keeps objects on the API host's filesystem under one root.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/visadesk-backend/pkg/storage"
)

// Store implements storage.Store on disk.
type Store struct {
	root    string
	baseURL string
}

// New creates root when missing.
func New(root, publicBaseURL string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("local storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Root is the directory served under the public base URL.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) Put(_ context.Context, key string, r io.Reader, _ string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".put-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), full)
}

func (s *Store) Move(ctx context.Context, src, dst string) error {
	from, err := s.path(src)
	if err != nil {
		return err
	}
	to, err := s.path(dst)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if _, err := os.Stat(from); errors.Is(err, fs.ErrNotExist) {
		exists, existsErr := s.Exists(ctx, dst)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return nil
		}
		return fmt.Errorf("%w: %s", storage.ErrNotFound, src)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	return os.Rename(from, to)
}

// Copy duplicates src onto dst, leaving src in place.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	from, err := s.path(src)
	if err != nil {
		return err
	}
	to, err := s.path(dst)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	f, err := os.Open(from)
	if errors.Is(err, fs.ErrNotExist) {
		exists, existsErr := s.Exists(ctx, dst)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return nil
		}
		return fmt.Errorf("%w: %s", storage.ErrNotFound, src)
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Put(ctx, dst, f, "")
}

func (s *Store) Delete(_ context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	full, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *Store) URL(key string) string {
	clean, err := storage.CleanKey(key)
	if err != nil {
		return ""
	}
	return s.baseURL + "/" + clean
}

func (s *Store) path(key string) (string, error) {
	clean, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
