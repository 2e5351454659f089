// Package report aggregates the outputs of one QC run into a single
// machine-readable structure with per-rule and per-severity tallies.
package report
