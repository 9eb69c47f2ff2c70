package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes uploads beneath a single directory using unique
// filenames so concurrent uploads of the same file never collide.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save streams the reader to disk and returns the assigned filename and
// full path.
func (l *LocalStore) Save(r io.Reader, originalName string) (string, string, error) {
	filename := uniqueName(originalName)
	path := filepath.Join(l.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("write upload file: %w", err)
	}

	return filename, path, nil
}

func (l *LocalStore) Open(filename string) (*os.File, error) {
	return os.Open(filepath.Join(l.dir, filename))
}

func (l *LocalStore) Remove(filename string) error {
	err := os.Remove(filepath.Join(l.dir, filename))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// uniqueName keeps the original extension but replaces the base with a
// uuid, avoiding both collisions and path traversal via crafted names.
func uniqueName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return uuid.NewString() + ext
}
