// Package service connects a capture subsystem to the assembler.
//
// The service registers three hooks with the capture subsystem. Filter hands
// every record to the assembler, logs one diagnostic line, and never
// discards. Init and LogError write to the diagnostic log.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/provgraph/internal/capture"
	"github.com/roach88/provgraph/internal/diaglog"
	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/ir"
)

// EntryLine is written to the diagnostic log for every record received.
const EntryLine = "Received an entry!"

// Service owns an assembler and the diagnostic log it reports to.
type Service struct {
	asm  *engine.Assembler
	diag *diaglog.Logger

	markOpaque bool
	engineOpts []engine.Option
}

// Option configures a Service.
type Option func(*Service)

// WithOpaqueLog controls whether Run asks the capture source to exclude the
// diagnostic log file. Default: true.
func WithOpaqueLog(on bool) Option {
	return func(s *Service) {
		s.markOpaque = on
	}
}

// WithEngineOptions passes options through to the assembler.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// New creates a Service. Its assembler also gets an observer that reports
// resolver failures to diag.
func New(diag *diaglog.Logger, opts ...Option) *Service {
	s := &Service{diag: diag, markOpaque: true}
	for _, opt := range opts {
		opt(s)
	}
	engineOpts := slices.Concat(s.engineOpts, []engine.Option{engine.WithObserver(&diagObserver{diag: diag})})
	s.asm = engine.New(engineOpts...)
	return s
}

// Assembler returns the service's assembler.
func (s *Service) Assembler() *engine.Assembler {
	return s.asm
}

// Ops returns the hooks to register with a capture subsystem.
func (s *Service) Ops() capture.Ops {
	return capture.Ops{
		Init:     s.initWorker,
		Filter:   s.filter,
		LogError: s.logError,
	}
}

// Run registers with src and blocks until src finishes.
// A registration failure is returned unchanged so callers can treat it as fatal.
func (s *Service) Run(ctx context.Context, src capture.Source) error {
	if s.markOpaque {
		s.markLogOpaque(src)
	}

	if err := src.Register(s.Ops()); err != nil {
		return fmt.Errorf("register capture hooks: %w", err)
	}

	if err := src.Run(ctx); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	return nil
}

// Close stops the assembler and returns its final statistics.
func (s *Service) Close() engine.Stats {
	return s.asm.Close()
}

func (s *Service) markLogOpaque(src capture.Source) {
	path := s.diag.Path()
	if path == "" {
		return
	}
	marker, ok := src.(capture.OpaqueMarker)
	if !ok {
		slog.Debug("capture source cannot exclude paths", "path", path)
		return
	}
	if err := marker.MarkOpaque(path, true); err != nil {
		slog.Warn("failed to mark diagnostic log opaque", "path", path, "error", err)
	}
}

func (s *Service) initWorker(worker string) {
	s.writeDiag(s.diag.LogThreadInit(worker))
}

func (s *Service) filter(rec ir.Record) bool {
	discard := s.asm.Ingest(rec)
	s.writeDiag(s.diag.LogLine(EntryLine))
	return discard
}

func (s *Service) logError(msg string) {
	s.writeDiag(s.diag.LogLine(msg))
}

func (s *Service) writeDiag(err error) {
	if err != nil {
		slog.Warn("diagnostic log write failed", "error", err)
	}
}

// diagObserver reports resolver failures to the diagnostic log and traces
// passes at debug level. It runs under the assembler lock; the logger has
// its own mutex and never calls back.
type diagObserver struct {
	engine.NopObserver
	diag *diaglog.Logger
}

func (o *diagObserver) BatchStarted(batch uint64, pending int) {
	slog.Debug("resolution pass started", "batch", batch, "pending", pending)
}

func (o *diagObserver) BatchFinished(batch uint64, resolved, remaining int) {
	slog.Debug("resolution pass finished",
		"batch", batch,
		"resolved", resolved,
		"remaining", remaining)
}

func (o *diagObserver) ResolveFailed(err *engine.ResolveError) {
	if werr := o.diag.LogLine(err.Error()); werr != nil {
		slog.Warn("diagnostic log write failed", "error", werr)
	}
}
