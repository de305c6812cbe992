// Package blobstore is the file-storage collaborator. Records hold the
// returned refs; the store never interprets file contents.
package blobstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves uploaded bytes under a path prefix and releases them by
// ref. Refs are opaque to callers beyond being non-empty strings.
type Store interface {
	Save(ctx context.Context, prefix, filename string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Upload is a parsed multipart file on its way into a Store.
type Upload struct {
	Filename string
	Data     []byte
}

// Disk stores blobs as files under a root directory. Refs are
// slash-separated paths relative to the root.
type Disk struct {
	root string
}

func NewDisk(root string) *Disk {
	return &Disk{root: root}
}

func (d *Disk) Save(_ context.Context, prefix, filename string, data []byte) (string, error) {
	ref := path.Join(prefix, uuid.NewString()+"-"+sanitize(filename))
	full := filepath.Join(d.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return ref, nil
}

func (d *Disk) Delete(_ context.Context, ref string) error {
	if ref == "" || strings.Contains(ref, "..") || path.IsAbs(ref) {
		return fmt.Errorf("invalid blob ref %q", ref)
	}
	return os.Remove(filepath.Join(d.root, filepath.FromSlash(ref)))
}

func sanitize(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" || base == "." {
		base = "upload"
	}
	return base
}
