package testutil

import (
	"strconv"

	"github.com/roach88/provgraph/internal/ir"
)

// Node builds a node record from a readable label (see ir.ParseNodeID).
// An empty payload yields a nil Payload.
func Node(label, payload string) ir.NodeRecord {
	n := ir.NodeRecord{ID: ir.MustNodeID(label)}
	if payload != "" {
		n.Payload = []byte(payload)
	}
	return n
}

// Edge builds an edge record between two labelled nodes.
func Edge(relation uint64, source, destination string) ir.EdgeRecord {
	return ir.EdgeRecord{
		RelationID:  relation,
		Source:      ir.MustNodeID(source),
		Destination: ir.MustNodeID(destination),
	}
}

// Edges builds n edges from source to destination with consecutive relation
// ids starting at first.
func Edges(first uint64, n int, source, destination string) []ir.EdgeRecord {
	out := make([]ir.EdgeRecord, n)
	for i := range n {
		out[i] = Edge(first+uint64(i), source, destination)
	}
	return out
}

// GhostEdges builds n edges whose endpoints are never inserted as nodes.
// Each edge gets its own pair of endpoints.
func GhostEdges(first uint64, n int) []ir.EdgeRecord {
	out := make([]ir.EdgeRecord, n)
	for i := range n {
		rel := first + uint64(i)
		out[i] = ir.EdgeRecord{
			RelationID:  rel,
			Source:      ir.MustNodeID("ghost:src:" + strconv.FormatUint(rel, 10)),
			Destination: ir.MustNodeID("ghost:dst:" + strconv.FormatUint(rel, 10)),
		}
	}
	return out
}
