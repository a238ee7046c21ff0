package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/documenttranslator/internal/models"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GCSStore is a document store backed by a single GCS bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a storage client bound to bucket.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSStore: bucket cannot be empty")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Bucket returns the name of the bucket the store reads and writes.
func (s *GCSStore) Bucket() string { return s.bucket }

// Get reads the whole object. A missing object yields an error wrapping models.ErrObjectNotFound.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, key, models.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", s.bucket, key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object gs://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// Put writes data to key only if the object does not already exist.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	writer := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", preconditionErr(key, err))
	}
	if err := writer.Close(); err != nil {
		slog.Error("Failed to close GCS writer.", "gcsObject", key, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", preconditionErr(key, err))
	}
	return nil
}

// RetrievalURL issues a V4 signed GET URL for key, valid for ttl.
func (s *GCSStore) RetrievalURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.signedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
}

// UploadURL issues a V4 signed PUT URL for key, restricted to contentType and valid for ttl.
func (s *GCSStore) UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return s.signedURL(key, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(ttl),
	})
}

func (s *GCSStore) signedURL(key string, opts *storage.SignedURLOptions) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s URL for gs://%s/%s: %w", opts.Method, s.bucket, key, err)
	}
	return url, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func preconditionErr(key string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("object %s already exists: %w", key, err)
	}
	return err
}
