// Package capture defines the boundary between a capture subsystem and the
// provenance service.
//
// A capture subsystem produces node and edge records on its own worker
// goroutines. The service hands it three hooks through Register:
//
//   - Init is called once per worker before that worker delivers a record.
//   - Filter is called for every record; returning true discards it.
//   - LogError is called with capture-side error messages.
//
// Hooks may be called concurrently from several workers. The subsystem owns
// the record for the duration of a Filter call only; consumers must copy what
// they keep.
//
// FileSource is a replay subsystem that reads a YAML record stream from disk
// and delivers it through a configurable number of workers.
package capture
