package storage

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

// GCSStore uploads blobs to a Google Cloud Storage bucket under a fixed
// folder prefix. Credentials come from the ambient application-default
// identity; acquiring them is out of scope here.
type GCSStore struct {
	client *storage.Client
	Bucket string
	Folder string
}

func NewGCSStore(ctx context.Context, bucket, folder string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSStore{client: client, Bucket: bucket, Folder: folder}, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	object := name
	if s.Folder != "" {
		object = path.Join(s.Folder, name)
	}

	w := s.client.Bucket(s.Bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", object, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.Bucket, object), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
