package testutil

import (
	"sync"

	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/ir"
)

// Resolution is one edge handed to a Recorder, with the batch that resolved it.
type Resolution struct {
	Batch       uint64
	Seq         int64
	Edge        ir.EdgeRecord
	Source      ir.NodeRecord
	Destination ir.NodeRecord
}

// BatchRecord summarizes one resolution pass.
type BatchRecord struct {
	Batch     uint64
	Pending   int // counter when the pass started
	Resolved  int
	Remaining int
}

// Recorder is both an engine.Resolver and an engine.Observer. It keeps every
// resolution and every pass in the order the Assembler reported them.
//
// Register the same Recorder with engine.WithResolver and engine.WithObserver;
// as a resolver alone it cannot see batch numbers or arrival seqs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Recorder struct {
	engine.NopObserver

	mu          sync.Mutex
	batch       uint64
	resolutions []Resolution
	batches     []BatchRecord
	failures    []*engine.ResolveError
	fail        func(ir.EdgeRecord) error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes Resolve return fn's result for each edge. A nil fn resets it.
func (r *Recorder) FailWith(fn func(ir.EdgeRecord) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fn
}

// Resolve implements engine.Resolver.
func (r *Recorder) Resolve(source, destination ir.NodeRecord, edge ir.EdgeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolutions = append(r.resolutions, Resolution{
		Batch:       r.batch,
		Edge:        edge.Clone(),
		Source:      source.Clone(),
		Destination: destination.Clone(),
	})
	if r.fail != nil {
		return r.fail(edge)
	}
	return nil
}

// BatchStarted implements engine.Observer.
func (r *Recorder) BatchStarted(batch uint64, pending int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batch = batch
	r.batches = append(r.batches, BatchRecord{Batch: batch, Pending: pending})
}

// EdgeResolved implements engine.Observer. It stamps the arrival seq onto
// the resolution Resolve just recorded.
func (r *Recorder) EdgeResolved(batch uint64, edge ir.EdgeRecord, seq int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.resolutions); n > 0 && r.resolutions[n-1].Edge.RelationID == edge.RelationID {
		r.resolutions[n-1].Seq = seq
	}
}

// BatchFinished implements engine.Observer.
func (r *Recorder) BatchFinished(batch uint64, resolved, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.batches); n > 0 && r.batches[n-1].Batch == batch {
		r.batches[n-1].Resolved = resolved
		r.batches[n-1].Remaining = remaining
	}
}

// ResolveFailed implements engine.Observer.
func (r *Recorder) ResolveFailed(err *engine.ResolveError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

// Resolutions returns a copy of every recorded resolution.
func (r *Recorder) Resolutions() []Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Resolution, len(r.resolutions))
	copy(out, r.resolutions)
	return out
}

// RelationIDs returns the relation ids in resolution order.
func (r *Recorder) RelationIDs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, len(r.resolutions))
	for i, res := range r.resolutions {
		out[i] = res.Edge.RelationID
	}
	return out
}

// Batches returns a copy of every recorded pass.
func (r *Recorder) Batches() []BatchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BatchRecord, len(r.batches))
	copy(out, r.batches)
	return out
}

// Failures returns the resolve errors reported so far.
func (r *Recorder) Failures() []*engine.ResolveError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*engine.ResolveError, len(r.failures))
	copy(out, r.failures)
	return out
}

// Reset clears everything recorded. The failure hook is kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batch = 0
	r.resolutions = nil
	r.batches = nil
	r.failures = nil
}
