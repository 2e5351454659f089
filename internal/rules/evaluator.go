package rules

import (
	"subqc/internal/profile"
	"subqc/internal/subtitle"
)

// Evaluate runs the full catalogue against every cue, in index order.
// Per-cue rules are pure functions of one cue; pair rules use a one-cue
// lookahead window. Output order is stable for identical input: a cue's
// issues appear in catalogue order, with the gap issue for the pair
// (i, i+1) attached after cue i's own issues.
func Evaluate(doc *subtitle.Document, prof *profile.Profile) []Issue {
	var issues []Issue
	for i := range doc.Cues {
		issues = append(issues, evaluateAt(doc, i, prof)...)
	}
	return issues
}

// EvaluateCue re-runs every rule that can observe the cue at position pos:
// its per-cue rules plus the pair rules with both neighbours. The auto-fix
// engine uses this to verify a fix against the affected region only.
func EvaluateCue(doc *subtitle.Document, pos int, prof *profile.Profile) []Issue {
	if pos < 0 || pos >= len(doc.Cues) {
		return nil
	}
	var issues []Issue
	if pos > 0 {
		issues = append(issues, evaluatePair(&doc.Cues[pos-1], &doc.Cues[pos], prof)...)
	}
	issues = append(issues, evaluateOwn(&doc.Cues[pos], prof)...)
	if pos+1 < len(doc.Cues) {
		issues = append(issues, evaluatePair(&doc.Cues[pos], &doc.Cues[pos+1], prof)...)
	}
	return issues
}

func evaluateAt(doc *subtitle.Document, pos int, prof *profile.Profile) []Issue {
	cue := &doc.Cues[pos]
	var issues []Issue
	for _, r := range catalogue {
		if r.cue != nil {
			issues = append(issues, r.cue(cue, prof)...)
		}
		if r.pair != nil && pos+1 < len(doc.Cues) {
			issues = append(issues, r.pair(cue, &doc.Cues[pos+1], prof)...)
		}
	}
	return issues
}

func evaluateOwn(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	var issues []Issue
	for _, r := range catalogue {
		if r.cue != nil {
			issues = append(issues, r.cue(cue, prof)...)
		}
	}
	return issues
}

func evaluatePair(prev, next *subtitle.Cue, prof *profile.Profile) []Issue {
	var issues []Issue
	for _, r := range catalogue {
		if r.pair != nil {
			issues = append(issues, r.pair(prev, next, prof)...)
		}
	}
	return issues
}

// Metrics aggregates document-level reading statistics.
type Metrics struct {
	CueCount        int     `json:"cueCount"`
	TotalDurationMs int64   `json:"totalDurationMs"`
	AvgCPS          float64 `json:"avgCPS"`
	OverCPS         int     `json:"overCPS"`
}

// ComputeMetrics summarizes reading speed across the document.
func ComputeMetrics(doc *subtitle.Document, prof *profile.Profile) Metrics {
	m := Metrics{CueCount: len(doc.Cues)}
	totalChars := 0
	for i := range doc.Cues {
		cue := &doc.Cues[i]
		totalChars += CueCharCount(cue)
		m.TotalDurationMs += cue.Duration()
		if CueCPS(cue) > prof.MaxCPS {
			m.OverCPS++
		}
	}
	if m.TotalDurationMs > 0 {
		m.AvgCPS = float64(totalChars) / (float64(m.TotalDurationMs) / 1000.0)
	}
	return m
}
