// Package storage holds the persistence collaborators for the survey
// workflow: blob stores for captured photo evidence and row sinks for the
// submission register.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// BlobStore persists one captured attachment and returns a stable
// retrievable URL for it.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// LocalStore writes blobs to the local filesystem. Used in development when
// GCS is not configured; files are served back via the /uploads/ route.
type LocalStore struct {
	Dir     string // e.g. "./uploads"
	BaseURL string // e.g. "/uploads"
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: baseURL}
}

func (s *LocalStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return fmt.Sprintf("%s/%s", s.BaseURL, name), nil
}
