package rules

import (
	"fmt"
	"strings"

	"subqc/internal/profile"
	"subqc/internal/subtitle"
)

// Rule identifiers, stable across profiles and reports.
const (
	RuleDurationMin = "duration-min"
	RuleDurationMax = "duration-max"
	RuleCPS         = "cps"
	RuleLineCount   = "line-count"
	RuleCPL         = "cpl"
	RuleCPLLow      = "cpl-low"
	RuleGap         = "gap"
	RuleEllipsis    = "ellipsis"
	RuleSpeakerDash = "speaker-dash"
)

type cueCheck func(cue *subtitle.Cue, prof *profile.Profile) []Issue

type pairCheck func(prev, next *subtitle.Cue, prof *profile.Profile) []Issue

// rule binds an id to its check function, default severity, and whether
// the auto-fix engine owns a deterministic transform for it.
type rule struct {
	id              string
	defaultSeverity Severity
	autoFixable     bool
	cue             cueCheck
	pair            pairCheck
}

// catalogue is the fixed check set. Evaluation order follows this table so
// issue output is stable for identical input. Pair rules evaluate against
// the immediate next cue only. Assembled in init because the check
// functions read the table back through findRule.
var catalogue []rule

func init() {
	catalogue = []rule{
		{id: RuleDurationMin, defaultSeverity: SeverityWarning, autoFixable: true, cue: checkDurationMin},
		{id: RuleDurationMax, defaultSeverity: SeverityWarning, autoFixable: true, cue: checkDurationMax},
		{id: RuleCPS, defaultSeverity: SeverityWarning, autoFixable: true, cue: checkCPS},
		{id: RuleLineCount, defaultSeverity: SeverityError, autoFixable: true, cue: checkLineCount},
		{id: RuleCPL, defaultSeverity: SeverityWarning, autoFixable: true, cue: checkCPL},
		{id: RuleCPLLow, defaultSeverity: SeverityInfo, autoFixable: false, cue: checkCPLLow},
		{id: RuleGap, defaultSeverity: SeverityWarning, autoFixable: false, pair: checkGap},
		{id: RuleEllipsis, defaultSeverity: SeverityInfo, autoFixable: true, cue: checkEllipsis},
		{id: RuleSpeakerDash, defaultSeverity: SeverityInfo, autoFixable: true, cue: checkSpeakerDash},
	}
}

// KnownRuleIDs returns every rule id in catalogue order.
func KnownRuleIDs() []string {
	ids := make([]string, 0, len(catalogue))
	for _, r := range catalogue {
		ids = append(ids, r.id)
	}
	return ids
}

// IsKnownRule reports whether an id names a catalogue rule.
func IsKnownRule(id string) bool {
	for _, r := range catalogue {
		if r.id == id {
			return true
		}
	}
	return false
}

// IsAutoFixable reports whether the auto-fix engine owns a transform for
// the rule.
func IsAutoFixable(id string) bool {
	for _, r := range catalogue {
		if r.id == id {
			return r.autoFixable
		}
	}
	return false
}

func (r rule) issue(cue *subtitle.Cue, prof *profile.Profile, message string) Issue {
	return Issue{
		RuleID:      r.id,
		Severity:    Severity(prof.Severity(r.id, string(r.defaultSeverity))),
		CueIndex:    cue.Index,
		EndCueIndex: cue.Index,
		Message:     message,
		AutoFixable: r.autoFixable,
	}
}

func findRule(id string) rule {
	for _, r := range catalogue {
		if r.id == id {
			return r
		}
	}
	return rule{}
}

func checkDurationMin(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	duration := cue.Duration()
	if duration >= prof.MinDurationMs {
		return nil
	}
	issue := findRule(RuleDurationMin).issue(cue, prof,
		fmt.Sprintf("duration %dms below minimum %dms", duration, prof.MinDurationMs))
	issue.SuggestedValue = subtitle.FormatSRTTimecode(cue.Start + prof.MinDurationMs)
	return []Issue{issue}
}

func checkDurationMax(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	duration := cue.Duration()
	if duration <= prof.MaxDurationMs {
		return nil
	}
	issue := findRule(RuleDurationMax).issue(cue, prof,
		fmt.Sprintf("duration %dms above maximum %dms", duration, prof.MaxDurationMs))
	issue.SuggestedValue = subtitle.FormatSRTTimecode(cue.Start + prof.MaxDurationMs)
	return []Issue{issue}
}

func checkCPS(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	cps := CueCPS(cue)
	if cps <= prof.MaxCPS {
		return nil
	}
	return []Issue{findRule(RuleCPS).issue(cue, prof,
		fmt.Sprintf("reading speed %.1f CPS exceeds %.1f", cps, prof.MaxCPS))}
}

func checkLineCount(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	if len(cue.Lines) <= prof.MaxLines {
		return nil
	}
	return []Issue{findRule(RuleLineCount).issue(cue, prof,
		fmt.Sprintf("%d lines exceed maximum %d", len(cue.Lines), prof.MaxLines))}
}

func checkCPL(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	var issues []Issue
	r := findRule(RuleCPL)
	for i, line := range cue.Lines {
		length := VisibleLength(line)
		if length <= prof.MaxCPL {
			continue
		}
		issue := r.issue(cue, prof, fmt.Sprintf("line %d has %d characters, maximum %d", i+1, length, prof.MaxCPL))
		issue.Line = i + 1
		issues = append(issues, issue)
	}
	return issues
}

// checkCPLLow hints at highly uneven two-line cues. Informational only.
func checkCPLLow(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	if prof.MinCPL <= 0 || len(cue.Lines) != 2 {
		return nil
	}
	var issues []Issue
	r := findRule(RuleCPLLow)
	for i, line := range cue.Lines {
		length := VisibleLength(line)
		if length >= prof.MinCPL {
			continue
		}
		issue := r.issue(cue, prof, fmt.Sprintf("line %d has %d characters, balance lines if possible", i+1, length))
		issue.Line = i + 1
		issues = append(issues, issue)
	}
	return issues
}

func checkGap(prev, next *subtitle.Cue, prof *profile.Profile) []Issue {
	if prof.MinGapMs <= 0 {
		return nil
	}
	if bothSimultaneous(prev, next, prof) {
		return nil
	}
	gap := next.Start - prev.End
	if gap >= prof.MinGapMs {
		return nil
	}
	r := findRule(RuleGap)
	issue := r.issue(prev, prof,
		fmt.Sprintf("gap of %dms to cue %d below minimum %dms", gap, next.Index, prof.MinGapMs))
	issue.EndCueIndex = next.Index
	return []Issue{issue}
}

// bothSimultaneous reports whether a cue pair is exempt from gap
// enforcement: both explicitly flagged, or both formatted as dual-speaker
// dialogue.
func bothSimultaneous(prev, next *subtitle.Cue, prof *profile.Profile) bool {
	if prev.Simultaneous && next.Simultaneous {
		return true
	}
	marker := prof.DualSpeakerDash
	return IsDualSpeaker(prev, marker) && IsDualSpeaker(next, marker)
}

func checkEllipsis(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	if prof.EllipsisChar == "" {
		return nil
	}
	for _, line := range cue.Lines {
		if strings.Contains(line, "...") {
			issue := findRule(RuleEllipsis).issue(cue, prof,
				fmt.Sprintf("literal dot sequence; use %s", prof.EllipsisChar))
			issue.SuggestedValue = prof.EllipsisChar
			return []Issue{issue}
		}
	}
	return nil
}

func checkSpeakerDash(cue *subtitle.Cue, prof *profile.Profile) []Issue {
	marker := prof.DualSpeakerDash
	if !IsDualSpeaker(cue, marker) {
		return nil
	}
	for _, line := range cue.Lines {
		if !strings.HasPrefix(strings.TrimSpace(line), marker) {
			return []Issue{findRule(RuleSpeakerDash).issue(cue, prof,
				fmt.Sprintf("dual-speaker cue: every line needs the %q prefix", marker))}
		}
	}
	return nil
}
