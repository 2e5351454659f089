package profile

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Profile is one broadcaster's rule threshold set. Profiles are immutable
// once loaded; language variants are distinct profiles, not runtime
// branches.
type Profile struct {
	ID string `json:"id"`
	// MaxCPL is the visible character budget per line.
	MaxCPL int `json:"maxCPL"`
	// MinCPL, when positive, marks highly uneven two-line cues with an
	// informational balance hint. Never auto-fixed.
	MinCPL   int `json:"minCPL,omitempty"`
	MaxLines int `json:"maxLines"`
	// Duration bounds and the minimum gap between consecutive cues, in
	// milliseconds.
	MinDurationMs int64 `json:"minDurationMs"`
	MaxDurationMs int64 `json:"maxDurationMs"`
	MinGapMs      int64 `json:"minGapMs"`
	// MaxCPS is the reading-speed budget in characters per second.
	MaxCPS float64 `json:"maxCPS"`
	// EllipsisChar is the canonical glyph replacing literal dot runs.
	EllipsisChar string `json:"ellipsisChar,omitempty"`
	// EllipsisNoInnerSpace squeezes whitespace around the glyph after
	// substitution.
	EllipsisNoInnerSpace bool `json:"ellipsisNoInnerSpace,omitempty"`
	// DualSpeakerDash is the marker prefixing each speaker line in a
	// dual-speaker cue. Empty disables the rule.
	DualSpeakerDash string `json:"dualSpeakerDash,omitempty"`
	// GuidelineURLs reference the style guides this profile encodes.
	GuidelineURLs []string `json:"guidelineURLs,omitempty"`
	// Severities overrides the default severity per rule id, so two
	// profiles may rank the same violation differently.
	Severities map[string]string `json:"severities,omitempty"`
}

// Severity returns the profile's severity for a rule, falling back to the
// supplied default.
func (p *Profile) Severity(ruleID, fallback string) string {
	if override, ok := p.Severities[ruleID]; ok {
		return override
	}
	return fallback
}

// Validate checks internal consistency of the threshold set.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("profile id must not be empty")
	}
	var problems []string
	if p.MaxCPL <= 0 {
		problems = append(problems, "max_cpl must be positive")
	}
	if p.MinCPL < 0 {
		problems = append(problems, "min_cpl must not be negative")
	}
	if p.MaxLines <= 0 {
		problems = append(problems, "max_lines must be positive")
	}
	if p.MinDurationMs <= 0 {
		problems = append(problems, "min_duration_ms must be positive")
	}
	if p.MinDurationMs >= p.MaxDurationMs {
		problems = append(problems, "min_duration_ms must be below max_duration_ms")
	}
	if p.MaxCPS <= 0 {
		problems = append(problems, "max_cps must be positive")
	}
	if p.MinGapMs < 0 {
		problems = append(problems, "min_gap_ms must not be negative")
	}
	if p.EllipsisChar != "" && !utf8.ValidString(p.EllipsisChar) {
		problems = append(problems, "ellipsis_char must be valid UTF-8")
	}
	for rule, severity := range p.Severities {
		switch severity {
		case "info", "warning", "error":
		default:
			problems = append(problems, fmt.Sprintf("severity for %s must be info, warning, or error", rule))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("profile %s: %s", p.ID, strings.Join(problems, "; "))
	}
	return nil
}
