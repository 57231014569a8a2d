package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// FS stores blobs as files under a root directory.
type FS struct {
	root string
}

// NewFS creates the root directory if needed.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blob root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FS{root: abs}, nil
}

// Upload writes data to path, replacing any previous blob there.
func (s *FS) Upload(_ context.Context, p string, data []byte) (Ref, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return Ref{}, err
	}
	contentType, err := DetectImage(data)
	if err != nil {
		return Ref{}, err
	}

	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return Ref{}, fmt.Errorf("create blob dir: %w", err)
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return Ref{}, fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return Ref{}, fmt.Errorf("write blob: %w", err)
	}
	return Ref{Path: clean, ContentType: contentType, Size: len(data)}, nil
}

// DownloadURL returns a file:// URL for the blob.
func (s *FS) DownloadURL(_ context.Context, ref Ref) (string, error) {
	clean, err := cleanPath(ref.Path)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", clean, ErrNotFound)
		}
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(full)}).String(), nil
}
