package edition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ChunkSink is durable storage for finished chunks. WriteChunk is called once
// per chunk, in capture order.
type ChunkSink interface {
	WriteChunk(ctx context.Context, name string, data []byte) error
}

// ChunkSinkFunc adapts a function to ChunkSink.
type ChunkSinkFunc func(ctx context.Context, name string, data []byte) error

func (f ChunkSinkFunc) WriteChunk(ctx context.Context, name string, data []byte) error {
	return f(ctx, name, data)
}

// DirSink writes chunks as files under a directory. Files are written to a
// temporary name and renamed into place, so a partially written chunk is never
// visible under its final name.
type DirSink struct {
	root string
}

// NewDirSink returns a DirSink rooted at dir, creating it if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dir sink: mkdir %s: %w", dir, err)
	}
	return &DirSink{root: dir}, nil
}

// Root returns the directory chunks are written to.
func (s *DirSink) Root() string { return s.root }

// WriteChunk writes data to root/name.
func (s *DirSink) WriteChunk(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) {
		return fmt.Errorf("dir sink: invalid chunk name %q", name)
	}
	path := filepath.Join(s.root, name)
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("dir sink: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("dir sink: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("dir sink: sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dir sink: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("dir sink: rename %s: %w", name, err)
	}
	return nil
}

// StoredChunk is a chunk kept by MemorySink.
type StoredChunk struct {
	Name string
	Data []byte
}

// MemorySink keeps chunks in memory. Useful in tests and for piping chunks to
// another consumer.
type MemorySink struct {
	Chunks []StoredChunk
}

// WriteChunk appends a copy of data.
func (s *MemorySink) WriteChunk(_ context.Context, name string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.Chunks = append(s.Chunks, StoredChunk{Name: name, Data: cp})
	return nil
}

// TeeSink writes every chunk to each sink in order and stops at the first
// failure.
type TeeSink []ChunkSink

// WriteChunk implements ChunkSink.
func (t TeeSink) WriteChunk(ctx context.Context, name string, data []byte) error {
	for _, s := range t {
		if err := s.WriteChunk(ctx, name, data); err != nil {
			return err
		}
	}
	return nil
}

// RetrySink retries failed writes of a remote sink with exponential backoff.
type RetrySink struct {
	Sink     ChunkSink
	Attempts int           // total attempts; values below 1 mean 1
	Backoff  time.Duration // wait before the second attempt, doubled after each failure
	Logger   *slog.Logger
}

// WriteChunk implements ChunkSink. It gives up early when ctx is done.
func (r *RetrySink) WriteChunk(ctx context.Context, name string, data []byte) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.Backoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = max(b.MaxInterval, r.Backoff)
	b.Reset()

	var errs []error
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := r.Sink.WriteChunk(ctx, name, data)
		if err != nil {
			errs = append(errs, err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(max(r.Attempts, 1))),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("chunk upload failed; retrying", "component", "sink", "chunk", name, "attempt", attempt, "wait", wait, "error", err)
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(append(errs, ctxErr)...)
	}
	return fmt.Errorf("chunk %s: %d attempts failed: %w", name, len(errs), errors.Join(errs...))
}
