package autofix

import (
	"math"
	"regexp"
	"strings"

	"subqc/internal/profile"
	"subqc/internal/rules"
	"subqc/internal/subtitle"
)

var (
	dotRunPattern        = regexp.MustCompile(`\.{3,}`)
	spacedDotRunPattern  = regexp.MustCompile(`\s*\.{3,}`)
	leadingDotRunPattern = regexp.MustCompile(`^\.{3,}\s*`)
)

// maxEnd returns the latest end time the cue at pos may take without
// crowding its successor: the successor's start minus the minimum gap,
// or the document end when the cue is last.
func maxEnd(doc *subtitle.Document, pos int, prof *profile.Profile) int64 {
	if pos+1 >= len(doc.Cues) {
		return math.MaxInt64
	}
	return doc.Cues[pos+1].Start - prof.MinGapMs
}

// extendEnd pushes the cue's end toward target, capped so the successor
// keeps its minimum gap. Returns false when no extension is possible.
func extendEnd(doc *subtitle.Document, pos int, target int64, prof *profile.Profile) bool {
	cue := &doc.Cues[pos]
	limit := maxEnd(doc, pos, prof)
	if target > limit {
		target = limit
	}
	if target <= cue.End {
		return false
	}
	cue.End = target
	return true
}

// fixDurationMin extends the cue's end to reach the minimum display
// duration. The extension is capped by the next cue; a capped extension
// may leave the violation partially open.
func fixDurationMin(doc *subtitle.Document, pos int, prof *profile.Profile) bool {
	cue := &doc.Cues[pos]
	return extendEnd(doc, pos, cue.Start+prof.MinDurationMs, prof)
}

// fixDurationMax clamps the cue's end to the maximum display duration.
func fixDurationMax(doc *subtitle.Document, pos int, prof *profile.Profile) bool {
	cue := &doc.Cues[pos]
	target := cue.Start + prof.MaxDurationMs
	if cue.End <= target {
		return false
	}
	cue.End = target
	return true
}

// fixCPS extends the cue's end until its reading speed fits the budget.
// Text is never shortened; a capped extension that merely improves the
// speed is kept, with the residual violation reported.
func fixCPS(doc *subtitle.Document, pos int, prof *profile.Profile) bool {
	cue := &doc.Cues[pos]
	chars := rules.CueCharCount(cue)
	if chars == 0 || prof.MaxCPS <= 0 {
		return false
	}
	neededMs := int64(math.Ceil(float64(chars) / prof.MaxCPS * 1000.0))
	if neededMs > prof.MaxDurationMs {
		neededMs = prof.MaxDurationMs
	}
	return extendEnd(doc, pos, cue.Start+neededMs, prof)
}

// rewrapLines redistributes the cue's words greedily across lines within
// the per-line budget. Returns nil when the text cannot fit the line and
// line-count budgets, or when the cue is dual-speaker dialogue whose line
// structure is semantic and must not be merged.
func rewrapLines(cue *subtitle.Cue, prof *profile.Profile) []string {
	words := strings.Fields(strings.Join(cue.Lines, " "))
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if rules.VisibleLength(candidate) <= prof.MaxCPL {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)
	if len(lines) > prof.MaxLines {
		return nil
	}
	for _, line := range lines {
		if rules.VisibleLength(line) > prof.MaxCPL {
			return nil
		}
	}
	return lines
}

// fixRewrap rebalances over-long or over-stacked text. Dual-speaker cues
// are skipped: merging their lines would merge speakers.
func fixRewrap(doc *subtitle.Document, pos int, prof *profile.Profile) bool {
	cue := &doc.Cues[pos]
	if rules.IsDualSpeaker(cue, prof.DualSpeakerDash) {
		return false
	}
	lines := rewrapLines(cue, prof)
	if lines == nil || equalLines(lines, cue.Lines) {
		return false
	}
	cue.Lines = lines
	return true
}

// fixEllipsis replaces literal dot runs with the profile's canonical
// glyph, optionally squeezing the space between the glyph and the word
// it trails.
func fixEllipsis(doc *subtitle.Document, pos int, prof *profile.Profile) bool {
	if prof.EllipsisChar == "" {
		return false
	}
	cue := &doc.Cues[pos]
	changed := false
	for i, line := range cue.Lines {
		var replaced string
		if prof.EllipsisNoInnerSpace {
			replaced = leadingDotRunPattern.ReplaceAllString(line, prof.EllipsisChar)
			replaced = spacedDotRunPattern.ReplaceAllString(replaced, prof.EllipsisChar)
		} else {
			replaced = dotRunPattern.ReplaceAllString(line, prof.EllipsisChar)
		}
		if replaced != line {
			cue.Lines[i] = replaced
			changed = true
		}
	}
	return changed
}

// fixSpeakerDash prefixes the marker onto dual-speaker lines that lack
// it. Already idempotent: marked lines are untouched.
func fixSpeakerDash(doc *subtitle.Document, pos int, prof *profile.Profile) bool {
	marker := prof.DualSpeakerDash
	cue := &doc.Cues[pos]
	if !rules.IsDualSpeaker(cue, marker) {
		return false
	}
	changed := false
	for i, line := range cue.Lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, marker) {
			continue
		}
		cue.Lines[i] = marker + " " + trimmed
		changed = true
	}
	return changed
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
