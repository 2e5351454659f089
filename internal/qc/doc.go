// Package qc orchestrates a full quality-control run: decode the input,
// evaluate it against a profile, optionally apply safe fixes or draft
// rewrite proposals, build the report, and persist the outcome.
//
// The package guarantees the caller's input is never mutated and that
// every persisted run is append-only: fixes and applied proposals
// produce new run rows chained to their parent.
package qc
