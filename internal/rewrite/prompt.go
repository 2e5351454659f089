package rewrite

import (
	"errors"
	"fmt"
	"strings"
)

// rewriteSystemPrompt instructs the model to condense subtitle text while
// preserving meaning. The response contract is strict JSON so the reply
// can be validated mechanically.
const rewriteSystemPrompt = `You are a subtitle editor. You condense subtitle text so it fits
broadcaster constraints while preserving meaning, register, and speaker
attribution. You never add information, never change speaker dashes, and
never merge two speakers onto one line.

Respond with JSON only, in this exact shape:
{"lines": ["first line", "second line"], "rationale": "one short sentence"}

The "lines" array is the full replacement text for the cue. Keep the
language of the original text.`

// ProposalRequest describes one cue whose text needs condensing, with
// the constraints the replacement must satisfy.
type ProposalRequest struct {
	CueIndex int
	Lines    []string
	// PrevText and NextText give the model conversational context. Either
	// may be empty at document edges.
	PrevText string
	NextText string
	// RuleIDs name the violations the rewrite should resolve.
	RuleIDs []string
	// Constraints, rendered into the prompt.
	MaxCPL     int
	MaxLines   int
	MaxCPS     float64
	DurationMs int64
}

func (r ProposalRequest) validate() error {
	if len(r.Lines) == 0 {
		return errors.New("rewrite propose: cue text required")
	}
	if r.MaxCPL <= 0 || r.MaxLines <= 0 {
		return errors.New("rewrite propose: line constraints required")
	}
	return nil
}

func (r ProposalRequest) userPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cue %d violates: %s.\n\n", r.CueIndex, strings.Join(r.RuleIDs, ", "))
	fmt.Fprintf(&b, "Constraints:\n- at most %d lines\n- at most %d characters per line\n", r.MaxLines, r.MaxCPL)
	if r.MaxCPS > 0 && r.DurationMs > 0 {
		budget := int(r.MaxCPS * float64(r.DurationMs) / 1000.0)
		fmt.Fprintf(&b, "- at most %d characters total (%.1f chars/sec over %dms)\n", budget, r.MaxCPS, r.DurationMs)
	}
	if r.PrevText != "" {
		fmt.Fprintf(&b, "\nPrevious cue:\n%s\n", r.PrevText)
	}
	fmt.Fprintf(&b, "\nCue text to condense:\n%s\n", strings.Join(r.Lines, "\n"))
	if r.NextText != "" {
		fmt.Fprintf(&b, "\nNext cue:\n%s\n", r.NextText)
	}
	return b.String()
}
