// Package store provides SQLite-backed durable storage for resolved
// provenance edges.
//
// The store is an append-only log with:
//   - Sessions: one row per daemon run (session id, window size, versions)
//   - Resolved edges: every edge the assembler resolved, with copies of both
//     endpoint node records and a content digest
//
// # Patterns
//
// Logical ordering:
//   - All ordering uses seq INTEGER columns, never timestamps
//   - Session seq increases per run; edge seq increases per session in the
//     order the assembler resolved them
//
// Idempotent writes:
//   - PRIMARY KEY(session_id, seq) with ON CONFLICT DO NOTHING
//
// Deterministic reads:
//   - All queries include ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Edge digests are computed by ir.EdgeDigest using RFC 8785 canonical JSON
// and SHA-256 with domain separation.
package store
