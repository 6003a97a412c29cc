package engine

import "github.com/roach88/provgraph/internal/ir"

// Resolver receives every resolved edge together with both endpoint records.
//
// Resolve is called while the Assembler's data lock is held, in relation-id
// order within a pass. It must not call back into the Assembler. A returned
// error is reported to observers; the edge counts as resolved either way.
type Resolver interface {
	Resolve(source, destination ir.NodeRecord, edge ir.EdgeRecord) error
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(source, destination ir.NodeRecord, edge ir.EdgeRecord) error

// Resolve calls f.
func (f ResolverFunc) Resolve(source, destination ir.NodeRecord, edge ir.EdgeRecord) error {
	return f(source, destination, edge)
}

// NopResolver discards resolved edges.
type NopResolver struct{}

// Resolve does nothing.
func (NopResolver) Resolve(ir.NodeRecord, ir.NodeRecord, ir.EdgeRecord) error { return nil }

// Observer is notified of every state change inside the Assembler.
//
// Callbacks run under the data lock, in the order the changes happen, and
// must not call back into the Assembler. Embed NopObserver to implement only
// the callbacks you need.
type Observer interface {
	NodeIndexed(node ir.NodeRecord, replaced bool, indexSize int)
	EdgeQueued(edge ir.EdgeRecord, seq int64, pending int)
	BatchStarted(batch uint64, pending int)
	EdgeResolved(batch uint64, edge ir.EdgeRecord, seq int64)
	BatchFinished(batch uint64, resolved, remaining int)
	ResolveFailed(err *ResolveError)
}

// NopObserver implements Observer with no-op methods.
type NopObserver struct{}

func (NopObserver) NodeIndexed(ir.NodeRecord, bool, int)      {}
func (NopObserver) EdgeQueued(ir.EdgeRecord, int64, int)      {}
func (NopObserver) BatchStarted(uint64, int)                  {}
func (NopObserver) EdgeResolved(uint64, ir.EdgeRecord, int64) {}
func (NopObserver) BatchFinished(uint64, int, int)            {}
func (NopObserver) ResolveFailed(*ResolveError)               {}
