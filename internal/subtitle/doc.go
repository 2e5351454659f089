// Package subtitle defines the canonical in-memory representation of a
// subtitle document and millisecond timecode arithmetic.
//
// Cue and Document are the intermediate form every format adapter decodes
// into and every rule evaluates against. Wire-format styling survives in
// the opaque Meta fields so round-trips stay lossless without the rules
// ever interpreting presentation data.
package subtitle
