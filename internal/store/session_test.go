package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provgraph/internal/ir"
)

func TestCreateSession_AssignsIncreasingSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.CreateSession(ctx, "s1", 100)
	require.NoError(t, err)
	second, err := s.CreateSession(ctx, "s2", 10)
	require.NoError(t, err)

	assert.Equal(t, Session{
		ID:            "s1",
		Seq:           1,
		Window:        100,
		EngineVersion: ir.EngineVersion,
		SchemaVersion: ir.SchemaVersion,
	}, first)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, 10, second.Window)
}

func TestCreateSession_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.CreateSession(ctx, "", 100)
	assert.Error(t, err, "empty id")

	_, err = s.CreateSession(ctx, "s1", 0)
	assert.Error(t, err, "non-positive window")

	createTestSession(t, s, "dup")
	_, err = s.CreateSession(ctx, "dup", 100)
	assert.Error(t, err, "duplicate id")
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "absent")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLatestSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.LatestSession(ctx)
	assert.ErrorIs(t, err, ErrNoSessions)

	createTestSession(t, s, "b")
	createTestSession(t, s, "a")

	latest, err := s.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", latest.ID)
}

func TestListSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, id := range []string{"z", "y", "x"} {
		createTestSession(t, s, id)
	}

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for i, want := range []string{"z", "y", "x"} {
		assert.Equal(t, want, sessions[i].ID)
		assert.Equal(t, int64(i+1), sessions[i].Seq)
	}
}
