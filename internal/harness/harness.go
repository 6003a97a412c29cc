package harness

import (
	"fmt"
	"log/slog"

	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh Assembler. Records are ingested in file
// order from a single goroutine, so the trace is deterministic. The returned
// error is reserved for scenarios that cannot run at all; failed expectations
// and assertions are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}
	records, err := scenario.records()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	rec := testutil.NewRecorder()
	asm := engine.New(
		engine.WithWindow(scenario.Window),
		engine.WithResolver(rec),
		engine.WithObserver(rec),
	)

	slog.Debug("running scenario",
		"name", scenario.Name,
		"records", len(records),
		"window", asm.Window())

	for _, r := range records {
		asm.Ingest(r)
	}

	result := NewResult()
	result.Pending = append(result.Pending, asm.PendingEdges()...)
	result.Stats = asm.Close()

	for _, res := range rec.Resolutions() {
		result.Trace = append(result.Trace, TraceEvent{
			Batch:       res.Batch,
			Seq:         res.Seq,
			Edge:        res.Edge,
			Source:      res.Source,
			Destination: res.Destination,
		})
	}
	for _, b := range rec.Batches() {
		result.Batches = append(result.Batches, BatchSummary(b))
	}

	for _, msg := range checkExpectation(result.Stats, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Debug("scenario finished",
		"name", scenario.Name,
		"pass", result.Pass,
		"batches", result.Stats.Batches,
		"resolved", result.Stats.Resolved,
		"pending", result.Stats.Pending)

	return result, nil
}

// RunFile loads a scenario file and runs it.
func RunFile(path string) (*Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return Run(scenario)
}

func checkExpectation(st engine.Stats, exp Expectation) []string {
	var errs []string
	if exp.Batches != nil && st.Batches != *exp.Batches {
		errs = append(errs, fmt.Sprintf("expected %d batches, got %d", *exp.Batches, st.Batches))
	}
	if exp.Resolved != nil && st.Resolved != *exp.Resolved {
		errs = append(errs, fmt.Sprintf("expected %d resolved edges, got %d", *exp.Resolved, st.Resolved))
	}
	if exp.Pending != nil && st.Pending != *exp.Pending {
		errs = append(errs, fmt.Sprintf("expected %d pending edges, got %d", *exp.Pending, st.Pending))
	}
	if exp.Nodes != nil && st.Nodes != *exp.Nodes {
		errs = append(errs, fmt.Sprintf("expected %d indexed nodes, got %d", *exp.Nodes, st.Nodes))
	}
	if st.Pending != st.QueueLen {
		errs = append(errs, fmt.Sprintf("pending counter %d does not match queue length %d", st.Pending, st.QueueLen))
	}
	return errs
}
