package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/provgraph/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession records a session with the given id and window 100.
func createTestSession(t *testing.T, s *Store, id string) Session {
	t.Helper()
	sess, err := s.CreateSession(context.Background(), id, 100)
	if err != nil {
		t.Fatalf("CreateSession(%q) failed: %v", id, err)
	}
	return sess
}

func testNode(label, payload string) ir.NodeRecord {
	n := ir.NodeRecord{ID: ir.MustNodeID(label)}
	if payload != "" {
		n.Payload = []byte(payload)
	}
	return n
}

func testEdge(rel uint64, from, to ir.NodeRecord, payload string) ir.EdgeRecord {
	e := ir.EdgeRecord{RelationID: rel, Source: from.ID, Destination: to.ID}
	if payload != "" {
		e.Payload = []byte(payload)
	}
	return e
}
