// Package rules evaluates a subtitle document against a broadcaster
// profile and produces an ordered issue list.
//
// Every check is a pure function of (cue, neighbour, profile parameters)
// registered in a fixed catalogue table, so evaluation is deterministic
// and new broadcaster profiles arrive as data rather than code. Cross-cue
// rules (gap enforcement, dual-speaker exemptions) read at most the
// immediate next cue through a sequential sliding window; the evaluator
// keeps no state between documents and is reentrant.
package rules
