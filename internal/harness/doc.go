// Package harness runs provenance ingestion scenarios against a real
// engine.Assembler and checks what it resolved.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	window: 100
//	records:
//	  - node: {id: "proc:1", payload: "bash"}
//	  - node: {id: "file:/etc/passwd"}
//	  - edge: {relation: 1, source: "proc:1", destination: "file:/etc/passwd", repeat: 100}
//	expect:
//	  batches: 1
//	  resolved: 100
//	  pending: 0
//	  nodes: 2
//	assertions:
//	  - type: resolved_order
//	    relations: [1, 2, 3]
//
// Records use the same entry format as capture.FileSource streams. The window
// defaults to engine.DefaultWindow. Unset expect fields are not checked.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - resolved_contains: an edge with the relation id was resolved
//   - resolved_order: relation ids were resolved in the given order
//   - pending_contains: an edge with the relation id is still queued
//   - batch_resolved: pass number batch resolved exactly count edges
//
// # Golden Traces
//
// RunWithGolden serializes the resolved edges as canonical JSON and compares
// them against testdata/golden/{name}.golden. To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
