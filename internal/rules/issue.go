package rules

// Severity ranks an issue. Values are fixed per rule by the active
// profile, never computed from the violation magnitude.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one rule violation. Issues are pure observations; they never
// mutate the document they describe.
type Issue struct {
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	// CueIndex is the violating cue. Cross-cue rules set EndCueIndex to
	// the second cue of the pair; it equals CueIndex otherwise.
	CueIndex    int `json:"cueIndex"`
	EndCueIndex int `json:"endCueIndex"`
	// Line is the 1-based offending line for per-line rules, 0 for
	// cue-level rules.
	Line        int    `json:"line,omitempty"`
	Message     string `json:"message"`
	AutoFixable bool   `json:"autoFixable"`
	// SuggestedValue carries the mechanical correction when one is known
	// up front, e.g. the clamped end timecode.
	SuggestedValue string `json:"suggestedValue,omitempty"`
}

// Matches reports whether two issues describe the same violation site.
// Used by the auto-fix engine to verify a transform resolved its issue.
func (i Issue) Matches(other Issue) bool {
	return i.RuleID == other.RuleID &&
		i.CueIndex == other.CueIndex &&
		i.EndCueIndex == other.EndCueIndex &&
		i.Line == other.Line
}
