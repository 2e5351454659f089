// Package store persists QC runs and rewrite proposals in SQLite.
//
// Runs are append-only: applying fixes or an approved proposal inserts a
// new run row chained to its parent, never an update, so every state a
// subtitle file passed through stays reconstructable. A file lock in the
// data directory serializes concurrent CLI invocations.
package store
