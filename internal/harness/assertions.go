package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] batch %d rel %d: %s -> %s\n",
				i+1, ev.Batch, ev.Edge.RelationID, ev.Edge.Source, ev.Edge.Destination)
		}
	}

	return buf.String()
}

// assertResolvedContains checks that an edge with the relation id was resolved.
func assertResolvedContains(result *Result, assertion Assertion) error {
	for _, ev := range result.Trace {
		if ev.Edge.RelationID == assertion.Relation {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertResolvedContains,
		Expected: fmt.Sprintf("relation %d resolved", assertion.Relation),
		Actual:   "not found in trace",
		Trace:    result.Trace,
	}
}

// assertResolvedOrder checks that the relation ids were resolved in order.
// Other resolutions may appear in between.
func assertResolvedOrder(result *Result, assertion Assertion) error {
	positions := make(map[uint64]int)
	for i, ev := range result.Trace {
		if _, seen := positions[ev.Edge.RelationID]; !seen {
			positions[ev.Edge.RelationID] = i + 1
		}
	}

	for _, rel := range assertion.Relations {
		if positions[rel] == 0 {
			return &AssertionError{
				Type:     AssertResolvedOrder,
				Expected: fmt.Sprintf("all relations resolved: %v", assertion.Relations),
				Actual:   fmt.Sprintf("missing relation: %d", rel),
				Trace:    result.Trace,
			}
		}
	}

	for i := 1; i < len(assertion.Relations); i++ {
		prev := assertion.Relations[i-1]
		curr := assertion.Relations[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertResolvedOrder,
				Expected: fmt.Sprintf("relations in order: %v", assertion.Relations),
				Actual: fmt.Sprintf("%d (pos %d) should be before %d (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: result.Trace,
			}
		}
	}

	return nil
}

// assertPendingContains checks that an edge with the relation id is still queued.
func assertPendingContains(result *Result, assertion Assertion) error {
	for _, e := range result.Pending {
		if e.RelationID == assertion.Relation {
			return nil
		}
	}
	pending := make([]uint64, len(result.Pending))
	for i, e := range result.Pending {
		pending[i] = e.RelationID
	}
	return &AssertionError{
		Type:     AssertPendingContains,
		Expected: fmt.Sprintf("relation %d pending", assertion.Relation),
		Actual:   fmt.Sprintf("pending relations %v", pending),
	}
}

// assertBatchResolved checks how many edges one pass resolved.
func assertBatchResolved(result *Result, assertion Assertion) error {
	i := slices.IndexFunc(result.Batches, func(b BatchSummary) bool {
		return b.Batch == assertion.Batch
	})
	if i < 0 {
		return &AssertionError{
			Type:     AssertBatchResolved,
			Expected: fmt.Sprintf("batch %d resolved %d edges", assertion.Batch, assertion.Count),
			Actual:   fmt.Sprintf("only %d batches ran", len(result.Batches)),
		}
	}
	if got := result.Batches[i].Resolved; got != assertion.Count {
		return &AssertionError{
			Type:     AssertBatchResolved,
			Expected: fmt.Sprintf("batch %d resolved %d edges", assertion.Batch, assertion.Count),
			Actual:   fmt.Sprintf("%d edges", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertResolvedContains:
			err = assertResolvedContains(result, assertion)
		case AssertResolvedOrder:
			err = assertResolvedOrder(result, assertion)
		case AssertPendingContains:
			err = assertPendingContains(result, assertion)
		case AssertBatchResolved:
			err = assertBatchResolved(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
