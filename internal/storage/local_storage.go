package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
	"image/webp": ".webp",
}

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// SaveImage writes data as <hash><ext> and returns that name. An image whose
// hash is already stored is not written again.
func (ls *LocalStorage) SaveImage(data []byte, info ImageInfo) (string, error) {
	ext, ok := extensions[strings.ToLower(info.ContentType)]
	if !ok {
		ext = ".img"
	}

	base := info.Hash
	if base == "" {
		base = uuid.New().String()
	}
	filename := base + ext
	fullPath := filepath.Join(ls.basePath, filename)

	if _, err := os.Stat(fullPath); err == nil {
		return filename, nil
	}

	// Write under a temporary name so readers never see a partial file.
	tmpPath := filepath.Join(ls.basePath, "."+uuid.New().String()+".tmp")
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return filename, nil
}

func (ls *LocalStorage) OpenImage(name string) (io.ReadSeekCloser, error) {
	fullPath, err := ls.resolve(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return file, nil
}

func (ls *LocalStorage) DeleteImage(name string) error {
	fullPath, err := ls.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func (ls *LocalStorage) resolve(name string) (string, error) {
	cleanPath := filepath.Clean(name)
	if name == "" || strings.Contains(cleanPath, "..") || filepath.IsAbs(cleanPath) {
		return "", ErrInvalidName
	}
	return filepath.Join(ls.basePath, cleanPath), nil
}
