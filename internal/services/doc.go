// Package services defines the shared error taxonomy for the QC engine.
//
// Sentinel markers distinguish caller errors (unknown profile, unsupported
// format), malformed input (parse), and internal fix verification failures
// that the auto-fix engine recovers from on its own. Wrap tags errors with
// a marker plus component/operation context so the CLI can classify
// failures without string matching.
package services
