// Package storage persists uploaded complaint attachments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned for keys that could name a file outside the store.
var ErrInvalidKey = errors.New("invalid blob key")

// ValidKey reports whether key names a single file inside the store directory.
func ValidKey(key string) bool {
	return key != "" && key == filepath.Base(key) && !strings.HasPrefix(key, ".") && !strings.ContainsAny(key, `/\`)
}

// Blob describes a stored object.
type Blob struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// BlobStore stores opaque attachment content and returns a retrievable URL.
type BlobStore interface {
	Put(ctx context.Context, owner, ext, contentType string, r io.Reader) (*Blob, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore writes blobs under a directory that the HTTP server exposes at baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory blobs are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put writes r to a fresh uuid-named file prefixed with owner. ext includes the leading dot.
func (s *LocalStore) Put(ctx context.Context, owner, ext, contentType string, r io.Reader) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := uuid.NewString() + ext
	if owner != "" {
		key = owner + "-" + key
	}
	if !ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := filepath.Join(s.dir, key)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if copyErr != nil {
			return nil, fmt.Errorf("write blob: %w", copyErr)
		}
		return nil, fmt.Errorf("close blob: %w", closeErr)
	}

	return &Blob{
		Key:         key,
		URL:         s.baseURL + "/" + key,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
