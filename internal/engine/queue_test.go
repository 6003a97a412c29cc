package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provgraph/internal/ir"
)

func edge(rel uint64) ir.EdgeRecord {
	return ir.EdgeRecord{RelationID: rel}
}

func relations(q *EdgeQueue) []uint64 {
	out := make([]uint64, 0, q.Len())
	for _, e := range q.Snapshot() {
		out = append(out, e.RelationID)
	}
	return out
}

func seqs(q *EdgeQueue) []int64 {
	out := make([]int64, 0, q.Len())
	for _, p := range q.items {
		out = append(out, p.seq)
	}
	return out
}

func TestEdgeQueue_AppendPreservesOrder(t *testing.T) {
	q := NewEdgeQueue(4)
	for i, rel := range []uint64{3, 1, 2} {
		q.Append(edge(rel), int64(i+1))
	}

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []uint64{3, 1, 2}, relations(q))
}

func TestEdgeQueue_SortByRelationID(t *testing.T) {
	q := NewEdgeQueue(0)
	for i, rel := range []uint64{5, 2, 9, 1} {
		q.Append(edge(rel), int64(i+1))
	}

	q.SortByRelationID()
	assert.Equal(t, []uint64{1, 2, 5, 9}, relations(q))
}

func TestEdgeQueue_SortIsStable(t *testing.T) {
	q := NewEdgeQueue(0)
	// Arrival seq 1..6; relation ids with ties.
	for i, rel := range []uint64{2, 1, 2, 1, 2, 1} {
		q.Append(edge(rel), int64(i+1))
	}

	q.SortByRelationID()
	assert.Equal(t, []uint64{1, 1, 1, 2, 2, 2}, relations(q))
	assert.Equal(t, []int64{2, 4, 6, 1, 3, 5}, seqs(q), "ties must keep arrival order")

	// A second sort of already-sorted contents is a no-op.
	q.SortByRelationID()
	assert.Equal(t, []int64{2, 4, 6, 1, 3, 5}, seqs(q))
}

func TestEdgeQueue_CursorVisitsAllInOrder(t *testing.T) {
	q := NewEdgeQueue(0)
	for i := 1; i <= 4; i++ {
		q.Append(edge(uint64(i)), int64(i))
	}

	var visited []uint64
	cur := q.Cursor()
	for cur.Next() {
		visited = append(visited, cur.Edge().RelationID)
	}
	cur.Close()

	assert.Equal(t, []uint64{1, 2, 3, 4}, visited)
	assert.Equal(t, 4, q.Len())
}

func TestEdgeQueue_RemoveAtDuringPass(t *testing.T) {
	tests := []struct {
		name   string
		remove map[uint64]bool
		want   []uint64
	}{
		{"none", map[uint64]bool{}, []uint64{1, 2, 3, 4, 5}},
		{"all", map[uint64]bool{1: true, 2: true, 3: true, 4: true, 5: true}, []uint64{}},
		{"first", map[uint64]bool{1: true}, []uint64{2, 3, 4, 5}},
		{"last", map[uint64]bool{5: true}, []uint64{1, 2, 3, 4}},
		{"alternate", map[uint64]bool{1: true, 3: true, 5: true}, []uint64{2, 4}},
		{"middle run", map[uint64]bool{2: true, 3: true, 4: true}, []uint64{1, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewEdgeQueue(0)
			for i := 1; i <= 5; i++ {
				q.Append(edge(uint64(i)), int64(i))
			}

			cur := q.Cursor()
			for cur.Next() {
				if tt.remove[cur.Edge().RelationID] {
					require.True(t, q.RemoveAt(cur))
				}
			}
			cur.Close()

			assert.Equal(t, tt.want, relations(q))
		})
	}
}

func TestEdgeQueue_RemoveAtTwiceIsNoop(t *testing.T) {
	q := NewEdgeQueue(0)
	q.Append(edge(1), 1)
	q.Append(edge(2), 2)

	cur := q.Cursor()
	require.True(t, cur.Next())
	assert.True(t, q.RemoveAt(cur))
	assert.False(t, q.RemoveAt(cur), "an edge is removed at most once")
	cur.Close()

	assert.Equal(t, []uint64{2}, relations(q))
}

func TestEdgeQueue_RemoveAtBeforeNext(t *testing.T) {
	q := NewEdgeQueue(0)
	q.Append(edge(1), 1)

	cur := q.Cursor()
	assert.False(t, q.RemoveAt(cur))
	cur.Close()
	assert.Equal(t, 1, q.Len())
}

func TestEdgeQueue_CloseEarlyKeepsUnvisited(t *testing.T) {
	q := NewEdgeQueue(0)
	for i := 1; i <= 5; i++ {
		q.Append(edge(uint64(i)), int64(i))
	}

	cur := q.Cursor()
	require.True(t, cur.Next()) // 1
	q.RemoveAt(cur)
	require.True(t, cur.Next()) // 2, kept
	require.True(t, cur.Next()) // 3
	q.RemoveAt(cur)
	cur.Close()
	cur.Close() // idempotent

	assert.Equal(t, []uint64{2, 4, 5}, relations(q))
	assert.Equal(t, []int64{2, 4, 5}, seqs(q))
}

func TestEdgeQueue_ClearsVacatedSlots(t *testing.T) {
	q := NewEdgeQueue(0)
	q.Append(ir.EdgeRecord{RelationID: 1, Payload: []byte("x")}, 1)
	q.Append(ir.EdgeRecord{RelationID: 2, Payload: []byte("y")}, 2)

	cur := q.Cursor()
	for cur.Next() {
		q.RemoveAt(cur)
	}
	cur.Close()

	backing := q.items[:2]
	assert.Nil(t, backing[0].edge.Payload)
	assert.Nil(t, backing[1].edge.Payload)
}

func TestEdgeQueue_AppendDuringPassPanics(t *testing.T) {
	q := NewEdgeQueue(0)
	cur := q.Cursor()
	defer cur.Close()

	assert.Panics(t, func() { q.Append(edge(1), 1) })
}

func TestEdgeQueue_SecondCursorPanics(t *testing.T) {
	q := NewEdgeQueue(0)
	cur := q.Cursor()
	defer cur.Close()

	assert.Panics(t, func() { q.Cursor() })
}

func TestEdgeQueue_AppendAfterClose(t *testing.T) {
	q := NewEdgeQueue(0)
	q.Append(edge(1), 1)

	cur := q.Cursor()
	for cur.Next() {
		q.RemoveAt(cur)
	}
	cur.Close()

	q.Append(edge(7), 2)
	assert.Equal(t, []uint64{7}, relations(q))
}
