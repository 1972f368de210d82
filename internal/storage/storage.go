// Package storage keeps copies of uploaded images on disk.
package storage

import (
	"errors"
	"io"
)

var ErrInvalidName = errors.New("invalid image name")

type ImageInfo struct {
	// Hash is the content hash of the upload. Images with the same hash are
	// stored once.
	Hash        string
	ContentType string
	Size        int64
}

type Storage interface {
	SaveImage(data []byte, info ImageInfo) (string, error)
	OpenImage(name string) (io.ReadSeekCloser, error)
	DeleteImage(name string) error
}
