package capture

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/provgraph/internal/ir"
)

// Stream is the YAML document read by FileSource.
//
//	records:
//	  - node: {id: "proc:1", payload: "bash"}
//	  - edge: {relation: 7, source: "proc:1", destination: "file:/etc/passwd"}
//	  - edge: {relation: 100, source: "ghost:a", destination: "ghost:b", repeat: 50}
type Stream struct {
	Records []Entry `yaml:"records"`
}

// Entry holds exactly one of Node or Edge.
type Entry struct {
	Node *NodeEntry `yaml:"node,omitempty"`
	Edge *EdgeEntry `yaml:"edge,omitempty"`
}

// NodeEntry is the YAML form of a node record. IDs are UUIDs or labels.
type NodeEntry struct {
	ID      string `yaml:"id"`
	Payload string `yaml:"payload,omitempty"`
}

// EdgeEntry is the YAML form of an edge record.
//
// Repeat > 1 expands to that many edges with consecutive relation ids
// starting at Relation.
type EdgeEntry struct {
	Relation    uint64 `yaml:"relation"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Payload     string `yaml:"payload,omitempty"`
	Repeat      int    `yaml:"repeat,omitempty"`
}

// DecodeStream parses a YAML record stream. It checks syntax only; entry
// contents are checked by Expand.
func DecodeStream(r io.Reader) (*Stream, error) {
	var s Stream
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return &s, nil
		}
		return nil, fmt.Errorf("decode record stream: %w", err)
	}
	return &s, nil
}

// Expand converts the entry into one or more records.
func (e Entry) Expand() ([]ir.Record, error) {
	switch {
	case e.Node != nil && e.Edge != nil:
		return nil, fmt.Errorf("entry has both node and edge")
	case e.Node != nil:
		id, err := ir.ParseNodeID(e.Node.ID)
		if err != nil {
			return nil, fmt.Errorf("node id: %w", err)
		}
		return []ir.Record{ir.NodeRecord{ID: id, Payload: payload(e.Node.Payload)}}, nil
	case e.Edge != nil:
		return e.Edge.expand()
	default:
		return nil, fmt.Errorf("entry has neither node nor edge")
	}
}

func (e EdgeEntry) expand() ([]ir.Record, error) {
	src, err := ir.ParseNodeID(e.Source)
	if err != nil {
		return nil, fmt.Errorf("edge source: %w", err)
	}
	dst, err := ir.ParseNodeID(e.Destination)
	if err != nil {
		return nil, fmt.Errorf("edge destination: %w", err)
	}
	if e.Repeat < 0 {
		return nil, fmt.Errorf("edge repeat must not be negative, got %d", e.Repeat)
	}
	n := max(e.Repeat, 1)
	out := make([]ir.Record, n)
	for i := range n {
		out[i] = ir.EdgeRecord{
			RelationID:  e.Relation + uint64(i),
			Source:      src,
			Destination: dst,
			Payload:     payload(e.Payload),
		}
	}
	return out, nil
}

// Expand converts every entry, failing on the first invalid one.
func (s *Stream) Expand() ([]ir.Record, error) {
	var out []ir.Record
	for i, e := range s.Records {
		recs, err := e.Expand()
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

func payload(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
