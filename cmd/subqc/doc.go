// Command subqc checks subtitle files against editorial rule profiles
// and applies the fixes that can be made safely. Analyze evaluates and
// gates, fix corrects, and the proposals commands drive the
// review-then-apply flow for model-drafted rewrites.
package main
