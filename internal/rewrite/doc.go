// Package rewrite drafts text condensations for violations that no
// deterministic transform can fix, and gates them behind explicit
// approval.
//
// The Client talks to an OpenRouter-compatible chat completion API in
// JSON mode with bounded retries. The Service re-validates every drafted
// candidate against the active profile before it becomes a Proposal, and
// Apply refuses any proposal that is unapproved, expired, or drafted
// against text that has since changed. A QC run in rewrite mode mutates
// nothing: approval is always a separate, later step.
package rewrite
