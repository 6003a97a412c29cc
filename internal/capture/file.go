package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/provgraph/internal/ir"
)

// FileSource replays a YAML record stream through a pool of workers.
//
// With one worker, records are delivered in file order. With more, each
// worker pulls the next record from a shared channel, so delivery order
// across workers is unspecified, as it is for a live capture subsystem.
//
// Entries that fail conversion are reported through LogError and skipped.
// A stream that fails to parse is a fatal error from Run.
type FileSource struct {
	path    string
	workers int

	mu     sync.Mutex
	ops    *Ops
	opaque map[string]bool

	delivered atomic.Int64
	discarded atomic.Int64
	skipped   atomic.Int64
}

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithWorkers sets the number of delivery workers. Values below 1 are ignored.
func WithWorkers(n int) FileSourceOption {
	return func(s *FileSource) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// NewFileSource creates a source reading path. Nothing is read until Run.
func NewFileSource(path string, opts ...FileSourceOption) *FileSource {
	s := &FileSource{
		path:    path,
		workers: 1,
		opaque:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileStats counts what a FileSource has done so far.
type FileStats struct {
	Delivered int64 `json:"delivered"`
	Discarded int64 `json:"discarded"`
	Skipped   int64 `json:"skipped"`
}

// Stats returns the delivery counters.
func (s *FileSource) Stats() FileStats {
	return FileStats{
		Delivered: s.delivered.Load(),
		Discarded: s.discarded.Load(),
		Skipped:   s.skipped.Load(),
	}
}

// Workers returns the configured worker count.
func (s *FileSource) Workers() int {
	return s.workers
}

// Register implements Source.
func (s *FileSource) Register(ops Ops) error {
	if err := ops.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ops != nil {
		return &RegistrationError{
			Code:    ErrCodeAlreadyRegistered,
			Message: fmt.Sprintf("hooks already registered for %s", s.path),
		}
	}
	s.ops = &ops
	return nil
}

// MarkOpaque implements OpaqueMarker. A replay source has no live I/O to
// exclude; the marks are kept so callers can query them.
func (s *FileSource) MarkOpaque(path string, opaque bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("mark opaque %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if opaque {
		s.opaque[abs] = true
	} else {
		delete(s.opaque, abs)
	}
	return nil
}

// IsOpaque reports whether path has been marked opaque.
func (s *FileSource) IsOpaque(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opaque[abs]
}

// Run implements Source.
func (s *FileSource) Run(ctx context.Context) error {
	s.mu.Lock()
	ops := s.ops
	s.mu.Unlock()

	if ops == nil {
		return &RegistrationError{
			Code:    ErrCodeNotRegistered,
			Message: "Run called before Register",
		}
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open record stream: %w", err)
	}
	stream, err := DecodeStream(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}

	slog.Debug("replaying record stream",
		"path", s.path,
		"entries", len(stream.Records),
		"workers", s.workers)

	g, ctx := errgroup.WithContext(ctx)
	records := make(chan ir.Record)

	g.Go(func() error {
		defer close(records)
		for i, entry := range stream.Records {
			recs, err := entry.Expand()
			if err != nil {
				s.skipped.Add(1)
				ops.logError(fmt.Sprintf("%s: records[%d]: %v", s.path, i, err))
				continue
			}
			for _, rec := range recs {
				select {
				case records <- rec:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})

	for w := range s.workers {
		name := fmt.Sprintf("worker-%d", w)
		g.Go(func() error {
			ops.init(name)
			for rec := range records {
				if ops.Filter(rec) {
					s.discarded.Add(1)
				} else {
					s.delivered.Add(1)
				}
			}
			return nil
		})
	}

	return g.Wait()
}
