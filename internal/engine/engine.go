package engine

import (
	"fmt"
	"sync"

	"github.com/roach88/provgraph/internal/ir"
)

// DefaultWindow is the number of pending edges that triggers a resolution pass.
const DefaultWindow = 100

// State is the batch state of an Assembler.
type State int32

const (
	// StateIdle means no resolution pass is running.
	StateIdle State = iota
	// StateResolving means one caller is executing a resolution pass.
	StateResolving
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stats is a consistent snapshot of an Assembler, taken under its lock.
type Stats struct {
	Window   int    `json:"window"`
	Nodes    int    `json:"nodes"`     // distinct node identifiers indexed
	Pending  int    `json:"pending"`   // pending-edge counter
	QueueLen int    `json:"queue_len"` // edges actually queued; always equals Pending
	Ingested uint64 `json:"ingested"`  // records accepted
	Batches  uint64 `json:"batches"`   // resolution passes run
	Resolved uint64 `json:"resolved"`  // edges resolved and removed
	State    State  `json:"state"`
}

// Assembler is the provenance graph ingestion core.
//
// It owns the node index, the pending edge queue and the pending counter,
// all guarded by one mutex. Every method is safe for concurrent use.
//
// INVARIANTS (outside of a held lock):
//   - pending == queue.Len()
//   - state == StateIdle
//   - every accepted record is either in the index, in the queue, or has been
//     handed to the Resolver exactly once
type Assembler struct {
	mu sync.Mutex

	window    int
	index     *NodeIndex
	queue     *EdgeQueue
	pending   int
	state     State
	clock     *Clock
	resolver  Resolver
	observers []Observer
	closed    bool

	ingested uint64
	batches  uint64
	resolved uint64
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithWindow sets the pending-edge count that triggers a resolution pass.
//
// Default: 100 (DefaultWindow). Values below 1 are ignored.
func WithWindow(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.window = n
		}
	}
}

// WithResolver sets the consumer of resolved edges. Default: NopResolver.
func WithResolver(r Resolver) Option {
	return func(a *Assembler) {
		if r != nil {
			a.resolver = r
		}
	}
}

// WithObserver adds an observer. Observers are notified in registration order.
func WithObserver(o Observer) Option {
	return func(a *Assembler) {
		if o != nil {
			a.observers = append(a.observers, o)
		}
	}
}

// WithClock sets the clock used to stamp arrivals.
func WithClock(c *Clock) Option {
	return func(a *Assembler) {
		if c != nil {
			a.clock = c
		}
	}
}

// New creates an Assembler in the Idle state with an empty index and queue.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		window:   DefaultWindow,
		index:    NewNodeIndex(),
		clock:    NewClock(),
		resolver: NopResolver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.queue = NewEdgeQueue(a.window)
	return a
}

// Ingest accepts one record and reports whether the capture subsystem should
// discard it. No filtering policy exists, so the answer is always false.
//
// Nodes are upserted into the index; edges are appended to the queue and
// counted. If, after the mutation, the pending counter has reached the window,
// the calling goroutine runs a full resolution pass before returning, still
// holding the lock. Other callers block until it finishes.
//
// The record's payload is copied; the caller may reuse its buffers.
// Panics if called after Close.
func (a *Assembler) Ingest(rec ir.Record) (discard bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		panic("engine: ingest on closed assembler")
	}

	seq := a.clock.Next()
	switch r := rec.(type) {
	case ir.NodeRecord:
		a.indexLocked(r)
	case *ir.NodeRecord:
		a.indexLocked(*r)
	case ir.EdgeRecord:
		a.enqueueLocked(r, seq)
	case *ir.EdgeRecord:
		a.enqueueLocked(*r, seq)
	default:
		// Record is sealed to the types above.
		panic(fmt.Sprintf("engine: unclassifiable record %T", rec))
	}
	a.ingested++

	if a.pending >= a.window {
		a.resolveLocked()
	}
	return false
}

func (a *Assembler) indexLocked(n ir.NodeRecord) {
	n = n.Clone()
	replaced := a.index.Upsert(n)
	size := a.index.Len()
	for _, o := range a.observers {
		o.NodeIndexed(n, replaced, size)
	}
}

func (a *Assembler) enqueueLocked(e ir.EdgeRecord, seq int64) {
	e = e.Clone()
	a.queue.Append(e, seq)
	a.pending++
	for _, o := range a.observers {
		o.EdgeQueued(e, seq, a.pending)
	}
}

// resolveLocked runs one resolution pass. Caller must hold a.mu.
func (a *Assembler) resolveLocked() {
	a.state = StateResolving
	a.batches++
	batch := a.batches
	for _, o := range a.observers {
		o.BatchStarted(batch, a.pending)
	}

	resolved := a.joinLocked(batch)

	a.resolved += uint64(resolved)
	a.state = StateIdle
	for _, o := range a.observers {
		o.BatchFinished(batch, resolved, a.pending)
	}
}

// joinLocked sorts the queue and walks it once, resolving every edge whose
// endpoints are both indexed. Returns the number of edges resolved.
func (a *Assembler) joinLocked(batch uint64) int {
	a.queue.SortByRelationID()

	cur := a.queue.Cursor()
	defer cur.Close()

	resolved := 0
	for cur.Next() {
		edge := cur.Edge()
		src, ok := a.index.Lookup(edge.Source)
		if !ok {
			continue
		}
		dst, ok := a.index.Lookup(edge.Destination)
		if !ok {
			continue
		}

		seq := cur.Seq()
		a.queue.RemoveAt(cur)
		a.pending--
		resolved++

		if err := a.resolver.Resolve(src, dst, edge); err != nil {
			rerr := &ResolveError{Batch: batch, Edge: edge, Seq: seq, Err: err}
			for _, o := range a.observers {
				o.ResolveFailed(rerr)
			}
		}
		for _, o := range a.observers {
			o.EdgeResolved(batch, edge, seq)
		}
	}
	return resolved
}

// Stats returns a consistent snapshot.
func (a *Assembler) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statsLocked()
}

func (a *Assembler) statsLocked() Stats {
	return Stats{
		Window:   a.window,
		Nodes:    a.index.Len(),
		Pending:  a.pending,
		QueueLen: a.queue.Len(),
		Ingested: a.ingested,
		Batches:  a.batches,
		Resolved: a.resolved,
		State:    a.state,
	}
}

// Lookup returns the indexed record for id.
func (a *Assembler) Lookup(id ir.NodeID) (ir.NodeRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index.Lookup(id)
}

// PendingEdges returns the queued edges in current queue order.
// The queue is in arrival order until the first pass and in relation-id
// order afterwards, with later arrivals appended.
func (a *Assembler) PendingEdges() []ir.EdgeRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queue.Snapshot()
}

// Window returns the configured window size.
func (a *Assembler) Window() int {
	return a.window
}

// Close tears the assembler down and returns its final stats.
// Edges still pending at Close are reported in the stats, never resolved.
// Further Ingest calls panic. Close is idempotent.
func (a *Assembler) Close() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.statsLocked()
	a.closed = true
	return st
}
