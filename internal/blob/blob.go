// Package blob stores uploaded images on the local filesystem or in an S3
// compatible bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Upload and DownloadURL errors shared by every backend.
var (
	ErrNotImage    = errors.New("file is not an image")
	ErrEmpty       = errors.New("file is empty")
	ErrInvalidPath = errors.New("invalid blob path")
	ErrNotFound    = errors.New("blob not found")
)

// MaxSize bounds a single upload.
const MaxSize = 10 << 20

// Ref identifies a stored blob.
type Ref struct {
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// Store uploads blobs and hands out URLs to read them back.
type Store interface {
	Upload(ctx context.Context, path string, data []byte) (Ref, error)
	DownloadURL(ctx context.Context, ref Ref) (string, error)
}

// DetectImage sniffs data and returns its MIME type, failing unless it is an image.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("file exceeds %d bytes", MaxSize)
	}
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return mt.String(), nil
		}
	}
	return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
}

// cleanPath checks p is a relative slash path that stays inside the store.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	c := path.Clean(p)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return c, nil
}

// Backend names accepted by Open.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Open builds the configured backend. dir is the filesystem root used by
// the fs backend.
func Open(ctx context.Context, backend, dir string, s3opts S3Options) (Store, error) {
	switch backend {
	case "", BackendFS:
		return NewFS(dir)
	case BackendS3:
		return NewS3(ctx, s3opts)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", backend)
	}
}
