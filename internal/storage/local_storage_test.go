package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorage(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	content := []byte("fake png bytes")
	hash := "900150983cd24fb0d6963f7d28e17f72"

	t.Run("SaveImage", func(t *testing.T) {
		name, err := storage.SaveImage(content, ImageInfo{Hash: hash, ContentType: "image/png", Size: int64(len(content))})
		if err != nil {
			t.Fatalf("Failed to save image: %v", err)
		}

		if name != hash+".png" {
			t.Errorf("Expected %s.png, got %s", hash, name)
		}

		if _, err := os.Stat(filepath.Join(tmpDir, name)); os.IsNotExist(err) {
			t.Errorf("Image was not saved to expected location")
		}
	})

	t.Run("SaveImageDeduplicates", func(t *testing.T) {
		name, err := storage.SaveImage([]byte("different"), ImageInfo{Hash: hash, ContentType: "image/png"})
		if err != nil {
			t.Fatalf("Failed to save image: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			t.Fatalf("Failed to read image: %v", err)
		}
		if string(data) != string(content) {
			t.Errorf("Existing image was overwritten")
		}
	})

	t.Run("SaveImageWithoutHash", func(t *testing.T) {
		name, err := storage.SaveImage(content, ImageInfo{ContentType: "application/octet-stream"})
		if err != nil {
			t.Fatalf("Failed to save image: %v", err)
		}
		if filepath.Ext(name) != ".img" {
			t.Errorf("Expected .img extension, got %s", filepath.Ext(name))
		}
	})

	t.Run("OpenImage", func(t *testing.T) {
		file, err := storage.OpenImage(hash + ".png")
		if err != nil {
			t.Fatalf("Failed to open image: %v", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("Failed to read image: %v", err)
		}
		if string(data) != string(content) {
			t.Errorf("Image content mismatch")
		}
	})

	t.Run("DeleteImage", func(t *testing.T) {
		if err := storage.DeleteImage(hash + ".png"); err != nil {
			t.Fatalf("Failed to delete image: %v", err)
		}

		if _, err := os.Stat(filepath.Join(tmpDir, hash+".png")); !os.IsNotExist(err) {
			t.Errorf("Image was not deleted")
		}
	})

	t.Run("PathTraversalPrevention", func(t *testing.T) {
		if _, err := storage.OpenImage("../../../etc/passwd"); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Expected ErrInvalidName for traversal, got %v", err)
		}

		if err := storage.DeleteImage("../../../etc/passwd"); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Expected ErrInvalidName for traversal in delete, got %v", err)
		}
	})

	t.Run("MissingImage", func(t *testing.T) {
		if _, err := storage.OpenImage("missing.png"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Expected fs.ErrNotExist, got %v", err)
		}
		if err := storage.DeleteImage("missing.png"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Expected fs.ErrNotExist on delete, got %v", err)
		}
	})
}
