// Package autofix applies deterministic, verified corrections to a
// subtitle document.
//
// Only transforms whose outcome is mechanically checkable are ever
// applied: end-time extension and clamping, greedy line rewrapping,
// ellipsis glyph substitution, and speaker-dash insertion. Every
// transform runs against a clone of the input, is re-verified on the
// affected region, and is reverted outright when it fails to resolve or
// strictly improve its violation. Running a pass twice produces no new
// changes.
//
// Anything requiring semantic judgement, shortening text most of all,
// is out of scope here and routed through the rewrite package's
// approval flow instead.
package autofix
