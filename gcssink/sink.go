// Package gcssink stores archive chunks in a Google Cloud Storage bucket.
package gcssink

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// Config holds construction parameters.
type Config struct {
	Bucket string
	Prefix string // optional key prefix, e.g. "renders/"
}

// Sink writes each chunk as one object.
type Sink struct {
	client *storage.Client
	bucket string
	prefix string
	owned  bool
}

// New creates a sink using Application Default Credentials. Set
// STORAGE_EMULATOR_HOST to target an emulator.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	s := NewWithClient(client, cfg.Bucket, cfg.Prefix)
	s.owned = true
	return s, nil
}

// NewWithClient wraps an existing client. Close leaves it open.
func NewWithClient(client *storage.Client, bucket, prefix string) *Sink {
	return &Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// OpenFromEnv reads EDITION_GCS_BUCKET and EDITION_GCS_PREFIX.
func OpenFromEnv(ctx context.Context) (*Sink, error) {
	bucket := os.Getenv("EDITION_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("EDITION_GCS_BUCKET required for gcs sink")
	}
	return New(ctx, Config{Bucket: bucket, Prefix: os.Getenv("EDITION_GCS_PREFIX")})
}

// Key returns the object name a chunk is stored under.
func (s *Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// WriteChunk uploads data as one object in a single request.
func (s *Sink) WriteChunk(ctx context.Context, name string, data []byte) error {
	key := s.Key(name)
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/x-tar"
	w.ChunkSize = 0 // data is already in memory
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", key, err)
	}
	return nil
}

// Close releases the client if the sink created it.
func (s *Sink) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
