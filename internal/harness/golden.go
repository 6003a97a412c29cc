package harness

import (
	"encoding/hex"
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/provgraph/internal/ir"
)

// TraceSnapshot captures the observable outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// Relation ids are written as decimal strings since canonical JSON has no
// unsigned 64-bit integers.
func (s *TraceSnapshot) toCanonicalMap() (map[string]any, error) {
	traceList := make([]any, len(s.Result.Trace))
	for i, ev := range s.Result.Trace {
		digest, err := ir.EdgeDigest(ev.Edge)
		if err != nil {
			return nil, err
		}
		traceList[i] = map[string]any{
			"batch":       int64(ev.Batch),
			"seq":         ev.Seq,
			"relation_id": strconv.FormatUint(ev.Edge.RelationID, 10),
			"source":      ev.Edge.Source.String(),
			"destination": ev.Edge.Destination.String(),
			"payload":     hex.EncodeToString(ev.Edge.Payload),
			"digest":      digest,
		}
	}

	st := s.Result.Stats
	pendingList := make([]any, len(s.Result.Pending))
	for i, e := range s.Result.Pending {
		pendingList[i] = strconv.FormatUint(e.RelationID, 10)
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"window":        st.Window,
		"trace":         traceList,
		"pending":       pendingList,
		"stats": map[string]any{
			"batches":  int64(st.Batches),
			"ingested": int64(st.Ingested),
			"nodes":    st.Nodes,
			"pending":  st.Pending,
			"resolved": int64(st.Resolved),
		},
	}, nil
}

// MarshalSnapshot renders a result as the canonical JSON stored in golden files.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Result:       result,
	}
	canonicalMap, err := snapshot.toCanonicalMap()
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(canonicalMap)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
