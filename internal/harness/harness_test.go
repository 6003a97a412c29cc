package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provgraph/internal/capture"
	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/ir"
)

func ptr[T any](v T) *T { return &v }

func edgeEntry(rel uint64, src, dst string, repeat int) capture.Entry {
	return capture.Entry{Edge: &capture.EdgeEntry{Relation: rel, Source: src, Destination: dst, Repeat: repeat}}
}

func nodeEntry(id string) capture.Entry {
	return capture.Entry{Node: &capture.NodeEntry{ID: id}}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "One self edge resolved by a window of one",
		Window:      1,
		Records: []capture.Entry{
			nodeEntry("a"),
			edgeEntry(7, "a", "a", 0),
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, uint64(7), result.Trace[0].Edge.RelationID)
	assert.Equal(t, uint64(1), result.Trace[0].Batch)
	assert.Equal(t, int64(2), result.Trace[0].Seq)
	assert.Equal(t, ir.MustNodeID("a"), result.Trace[0].Source.ID)
	assert.Equal(t, engine.StateIdle, result.Stats.State)
}

func TestRun_DefaultWindow(t *testing.T) {
	scenario := &Scenario{
		Name:        "default_window",
		Description: "Window falls back to the engine default",
		Records:     []capture.Entry{edgeEntry(1, "x", "y", engine.DefaultWindow-1)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, engine.DefaultWindow, result.Stats.Window)
	assert.Equal(t, uint64(0), result.Stats.Batches)
	assert.Len(t, result.Pending, engine.DefaultWindow-1)
}

func TestRun_ExpectationMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Wrong expectations are reported, not returned",
		Window:      2,
		Records:     []capture.Entry{edgeEntry(1, "x", "y", 2)},
		Expect: Expectation{
			Batches:  ptr(uint64(3)),
			Resolved: ptr(uint64(1)),
			Pending:  ptr(0),
			Nodes:    ptr(1),
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "expected 3 batches, got 1")
	assert.Contains(t, result.Errors[1], "expected 1 resolved edges, got 0")
	assert.Contains(t, result.Errors[2], "expected 0 pending edges, got 2")
	assert.Contains(t, result.Errors[3], "expected 1 indexed nodes, got 0")
}

func TestRun_BatchesRecorded(t *testing.T) {
	scenario := &Scenario{
		Name:        "batches",
		Description: "Every pass is summarized",
		Window:      2,
		Records: []capture.Entry{
			nodeEntry("a"),
			edgeEntry(1, "a", "a", 1),
			edgeEntry(2, "a", "missing", 1),
			edgeEntry(3, "a", "a", 1),
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Batches, 2)
	assert.Equal(t, BatchSummary{Batch: 1, Pending: 2, Resolved: 1, Remaining: 1}, result.Batches[0])
	assert.Equal(t, BatchSummary{Batch: 2, Pending: 2, Resolved: 1, Remaining: 1}, result.Batches[1])
	assert.Equal(t, []uint64{1, 3}, result.RelationIDs())
	require.Len(t, result.Pending, 1)
	assert.Equal(t, uint64(2), result.Pending[0].RelationID)
}

func TestRun_NilScenario(t *testing.T) {
	_, err := Run(nil)
	assert.Error(t, err)
}

func TestRun_InvalidRecord(t *testing.T) {
	scenario := &Scenario{
		Name:        "invalid",
		Description: "Entry with neither node nor edge",
		Records:     []capture.Entry{{}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither node nor edge")
}

func TestRunFile_ScenarioFiles(t *testing.T) {
	tests := []struct {
		file     string
		batches  uint64
		resolved uint64
		pending  int
	}{
		{"unresolvable_below_window.yaml", 0, 0, 99},
		{"unresolvable_window.yaml", 1, 0, 100},
		{"indexed_window.yaml", 1, 100, 0},
		{"out_of_order.yaml", 2, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result, err := RunFile("testdata/scenarios/" + tt.file)
			require.NoError(t, err)

			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, tt.batches, result.Stats.Batches)
			assert.Equal(t, tt.resolved, result.Stats.Resolved)
			assert.Equal(t, tt.pending, result.Stats.Pending)
			assert.Equal(t, tt.pending, result.Stats.QueueLen)
		})
	}
}

func TestRunFile_MissingFile(t *testing.T) {
	_, err := RunFile("testdata/scenarios/nope.yaml")
	assert.Error(t, err)
}
