package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/provgraph/internal/ir"
)

// ResolveError reports a Resolver failure for one resolved edge.
//
// The edge has already been removed from the queue when this error is raised:
// resolution is decided by endpoint presence, not by the consumer's outcome.
type ResolveError struct {
	// Batch is the pass during which the edge resolved.
	Batch uint64

	// Edge is the resolved edge.
	Edge ir.EdgeRecord

	// Seq is the edge's arrival sequence number.
	Seq int64

	// Err is the error returned by the Resolver.
	Err error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve edge relation=%d seq=%d batch=%d: %v",
		e.Edge.RelationID, e.Seq, e.Batch, e.Err)
}

// Unwrap returns the Resolver's error.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// IsResolveError returns true if err is or wraps a ResolveError.
func IsResolveError(err error) bool {
	var re *ResolveError
	return errors.As(err, &re)
}
