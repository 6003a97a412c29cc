package harness

import (
	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/ir"
)

// TraceEvent is one resolved edge, in the order the Assembler resolved it.
type TraceEvent struct {
	Batch       uint64        `json:"batch"`
	Seq         int64         `json:"seq"`
	Edge        ir.EdgeRecord `json:"edge"`
	Source      ir.NodeRecord `json:"source"`
	Destination ir.NodeRecord `json:"destination"`
}

// BatchSummary describes one resolution pass.
type BatchSummary struct {
	Batch     uint64 `json:"batch"`
	Pending   int    `json:"pending"`
	Resolved  int    `json:"resolved"`
	Remaining int    `json:"remaining"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every resolved edge in resolution order.
	Trace []TraceEvent `json:"trace"`

	// Batches lists every resolution pass in order.
	Batches []BatchSummary `json:"batches"`

	// Pending holds the edges still queued at the end, in queue order.
	Pending []ir.EdgeRecord `json:"pending"`

	// Stats is the Assembler's final snapshot.
	Stats engine.Stats `json:"stats"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Batches: []BatchSummary{},
		Pending: []ir.EdgeRecord{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// RelationIDs returns the relation ids of the trace in resolution order.
func (r *Result) RelationIDs() []uint64 {
	out := make([]uint64, len(r.Trace))
	for i, ev := range r.Trace {
		out[i] = ev.Edge.RelationID
	}
	return out
}
