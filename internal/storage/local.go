package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps attachments in a directory on disk. Stored paths are
// dir-relative joins like "uploads/<name>", matching what the files table
// has always held.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("upload dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Upload(ctx context.Context, objectName string, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(objectName)
	if err != nil {
		return "", err
	}

	p := filepath.Join(s.dir, name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", err
	}
	return p, nil
}

func (s *LocalStore) Remove(_ context.Context, storedPath string) error {
	if !s.owns(storedPath) {
		return fmt.Errorf("refusing to remove %q outside %q", storedPath, s.dir)
	}
	err := os.Remove(storedPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) owns(p string) bool {
	rel, err := filepath.Rel(s.dir, p)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

func cleanName(objectName string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + objectName))
	if name == "/" || name == "." || name == "" {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	return name, nil
}
