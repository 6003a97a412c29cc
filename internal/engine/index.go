package engine

import "github.com/roach88/provgraph/internal/ir"

// NodeIndex maps a node identifier to the latest record seen for it.
//
// NodeIndex is not safe for concurrent use on its own; the Assembler guards it
// with its data lock. There is no delete: the index grows for the lifetime of
// the process.
type NodeIndex struct {
	nodes map[ir.NodeID]ir.NodeRecord
}

// NewNodeIndex creates an empty index.
func NewNodeIndex() *NodeIndex {
	return &NodeIndex{nodes: make(map[ir.NodeID]ir.NodeRecord)}
}

// Upsert stores rec under rec.ID, replacing any earlier record for the same id.
// Returns true if a record was replaced.
func (x *NodeIndex) Upsert(rec ir.NodeRecord) (replaced bool) {
	_, replaced = x.nodes[rec.ID]
	x.nodes[rec.ID] = rec
	return replaced
}

// Lookup returns the record stored for id.
func (x *NodeIndex) Lookup(id ir.NodeID) (ir.NodeRecord, bool) {
	rec, ok := x.nodes[id]
	return rec, ok
}

// Len returns the number of distinct identifiers indexed.
func (x *NodeIndex) Len() int {
	return len(x.nodes)
}
