package engine

import (
	"cmp"
	"slices"

	"github.com/roach88/provgraph/internal/ir"
)

// pendingEdge is a queued edge stamped with its arrival sequence number.
type pendingEdge struct {
	edge ir.EdgeRecord
	seq  int64
}

// EdgeQueue buffers edges awaiting endpoint resolution, in arrival order.
//
// The queue is an owned contiguous slice: Append never allocates per edge
// beyond amortized growth, and removal during a pass compacts in place.
//
// EdgeQueue is not safe for concurrent use on its own; the Assembler guards it
// with its data lock.
type EdgeQueue struct {
	items  []pendingEdge
	cursor *Cursor // open cursor, if any
}

// NewEdgeQueue creates an empty queue with room for capacity edges.
func NewEdgeQueue(capacity int) *EdgeQueue {
	return &EdgeQueue{items: make([]pendingEdge, 0, capacity)}
}

// Append adds an edge at the back of the queue.
// Panics if a cursor is open: the queue may not grow during a pass.
func (q *EdgeQueue) Append(edge ir.EdgeRecord, seq int64) {
	if q.cursor != nil {
		panic("engine: append to edge queue during an open pass")
	}
	q.items = append(q.items, pendingEdge{edge: edge, seq: seq})
}

// Len returns the number of queued edges.
func (q *EdgeQueue) Len() int {
	return len(q.items)
}

// SortByRelationID orders the queue by ascending relation id.
// The sort is stable: edges with equal relation ids keep their arrival order,
// so repeated passes over the same contents visit edges identically.
func (q *EdgeQueue) SortByRelationID() {
	slices.SortStableFunc(q.items, func(a, b pendingEdge) int {
		return cmp.Compare(a.edge.RelationID, b.edge.RelationID)
	})
}

// Cursor opens a single forward pass over the queue.
// Only one cursor may be open at a time; Close must be called when done.
func (q *EdgeQueue) Cursor() *Cursor {
	if q.cursor != nil {
		panic("engine: edge queue cursor already open")
	}
	c := &Cursor{q: q, pos: -1}
	q.cursor = c
	return c
}

// RemoveAt removes the edge the cursor is positioned on. O(1).
// The slot is reclaimed when the cursor advances or closes.
// Returns false if the cursor is not positioned on a live edge.
func (q *EdgeQueue) RemoveAt(c *Cursor) bool {
	if c.q != q || !c.live {
		return false
	}
	c.live = false
	return true
}

// Snapshot returns the queued edges in current order. Used for diagnostics
// and tests.
func (q *EdgeQueue) Snapshot() []ir.EdgeRecord {
	out := make([]ir.EdgeRecord, len(q.items))
	for i, p := range q.items {
		out[i] = p.edge
	}
	return out
}

// Cursor walks an EdgeQueue once, in order, compacting removed slots away.
//
// Retained edges are shifted down to the write position as the cursor moves,
// so a pass that removes k of n edges costs O(n) moves in total and each
// removal is O(1).
type Cursor struct {
	q    *EdgeQueue
	pos  int  // index of the current element; -1 before the first Next
	keep int  // write position: number of retained elements so far
	live bool // current element is still retained
}

// Next advances to the next edge. Returns false when the pass is exhausted.
func (c *Cursor) Next() bool {
	if c.q == nil {
		return false
	}
	c.commit()
	if c.pos < len(c.q.items) {
		c.pos++
	}
	if c.pos >= len(c.q.items) {
		return false
	}
	c.live = true
	return true
}

// Edge returns the edge under the cursor.
func (c *Cursor) Edge() ir.EdgeRecord {
	return c.q.items[c.pos].edge
}

// Seq returns the arrival sequence number of the edge under the cursor.
func (c *Cursor) Seq() int64 {
	return c.q.items[c.pos].seq
}

// Close ends the pass. Edges not yet visited are kept in order.
// Close is idempotent.
func (c *Cursor) Close() {
	if c.q == nil {
		return
	}
	c.commit()

	items := c.q.items
	start := min(c.pos+1, len(items))
	n := c.keep + copy(items[c.keep:], items[start:])

	// Drop references held by the vacated tail so payloads can be collected.
	clear(items[n:])
	c.q.items = items[:n]
	c.q.cursor = nil
	c.q = nil
}

// commit moves a retained current element down to the write position.
func (c *Cursor) commit() {
	if !c.live {
		return
	}
	if c.keep != c.pos {
		c.q.items[c.keep] = c.q.items[c.pos]
	}
	c.keep++
	c.live = false
}
