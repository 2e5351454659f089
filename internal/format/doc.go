// Package format converts between supported subtitle wire formats and the
// canonical cue model.
//
// SRT, WebVTT, and TTML/IMSC adapters are bidirectional and round-trip
// lossless for every field the cue model tracks. Decoders are partial-
// failure tolerant where the format allows it: malformed SRT blocks are
// skipped and counted rather than aborting the run, while a missing WEBVTT
// header or a document with zero decodable cues is fatal. Formats without
// an adapter (notably playout binaries such as PAC) are rejected with an
// instruction to pre-convert rather than decoded best-effort.
package format
