package ir

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// NodeID is the opaque identifier of a tracked entity.
// Equality is by content; the zero value is a valid (if unusual) identifier.
type NodeID [16]byte

// nodeNamespace scopes name-derived identifiers so labels never collide with
// identifiers minted by other UUIDv5 users.
var nodeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("provgraph:node"))

// ParseNodeID converts a textual identifier into a NodeID.
//
// Canonical UUID strings are decoded directly. Any other non-empty label is
// mapped to a deterministic name-based (UUIDv5) identifier, so fixtures may
// refer to nodes by readable names:
//
//	ParseNodeID("550e8400-e29b-41d4-a716-446655440000") // decoded as-is
//	ParseNodeID("proc:42")                             // stable derived id
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return NodeID{}, fmt.Errorf("empty node identifier")
	}
	if u, err := uuid.Parse(s); err == nil {
		return NodeID(u), nil
	}
	return NodeID(uuid.NewSHA1(nodeNamespace, []byte(s))), nil
}

// MustNodeID is like ParseNodeID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNodeID(s string) NodeID {
	id, err := ParseNodeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the hyphenated UUID form of the identifier.
func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Record is a sealed union of NodeRecord and EdgeRecord.
type Record interface {
	record()
}

// NodeRecord describes a tracked entity.
type NodeRecord struct {
	ID      NodeID `json:"id" yaml:"id"`
	Payload []byte `json:"payload,omitempty" yaml:"payload,omitempty"`
}

func (NodeRecord) record() {}

// Clone returns a copy that shares no memory with r.
func (r NodeRecord) Clone() NodeRecord {
	r.Payload = bytes.Clone(r.Payload)
	return r
}

// EdgeRecord describes a relationship between two entities.
type EdgeRecord struct {
	RelationID  uint64 `json:"relation_id" yaml:"relation_id"`
	Source      NodeID `json:"source" yaml:"source"`
	Destination NodeID `json:"destination" yaml:"destination"`
	Payload     []byte `json:"payload,omitempty" yaml:"payload,omitempty"`
}

func (EdgeRecord) record() {}

// Clone returns a copy that shares no memory with r.
func (r EdgeRecord) Clone() EdgeRecord {
	r.Payload = bytes.Clone(r.Payload)
	return r
}
