package capture

import (
	"context"

	"github.com/roach88/provgraph/internal/ir"
)

// Ops is the set of hooks registered with a capture subsystem.
type Ops struct {
	// Init announces a worker. Optional.
	Init func(worker string)

	// Filter receives every captured record. Required.
	Filter func(rec ir.Record) (discard bool)

	// LogError receives capture-side error messages. Optional.
	LogError func(msg string)
}

// Source is a capture subsystem.
type Source interface {
	// Register attaches hooks. It fails if ops has no Filter or if hooks
	// were already registered.
	Register(ops Ops) error

	// Run delivers records until the source is exhausted, ctx is done, or
	// a fatal error occurs.
	Run(ctx context.Context) error
}

// OpaqueMarker is implemented by sources that can exclude paths from capture.
// The service marks its own log file opaque so its writes are not recorded.
type OpaqueMarker interface {
	MarkOpaque(path string, opaque bool) error
}

func (o Ops) validate() error {
	if o.Filter == nil {
		return &RegistrationError{
			Code:    ErrCodeMissingFilter,
			Message: "filter hook is required",
		}
	}
	return nil
}

func (o Ops) init(worker string) {
	if o.Init != nil {
		o.Init(worker)
	}
}

func (o Ops) logError(msg string) {
	if o.LogError != nil {
		o.LogError(msg)
	}
}
