// Package ir provides the record types exchanged between the capture boundary,
// the assembly engine and the resolved-edge consumers.
//
// This package contains type definitions and canonical encoding only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Records form a sealed union: every Record is a NodeRecord or an EdgeRecord
//   - NodeID is a fixed-size, comparable key (usable directly as a map key)
//   - Relation ids are encoded as decimal strings in canonical JSON, never as
//     JSON numbers, so values above 2^53 survive any JSON consumer
//   - No floats anywhere in canonical output
package ir
