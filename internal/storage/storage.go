package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage keeps the JPEG copies referenced by posts. SaveImage returns the
// location recorded in the post's image field.
type Storage interface {
	SaveImage(ctx context.Context, fileName string, file io.Reader, size int64) (string, error)
	DeleteImage(ctx context.Context, location string) error
}

// LocalStorage copies images into a folder next to the posts file.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image folder %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) SaveImage(ctx context.Context, fileName string, file io.Reader, size int64) (string, error) {
	if fileName != filepath.Base(fileName) {
		return "", fmt.Errorf("invalid image file name %q", fileName)
	}

	path := filepath.Join(s.dir, fileName)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to copy image to %s: %w", path, err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	return path, nil
}

func (s *LocalStorage) DeleteImage(ctx context.Context, location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", location, err)
	}
	return nil
}
