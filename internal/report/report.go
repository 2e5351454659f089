package report

import (
	"time"

	"subqc/internal/autofix"
	"subqc/internal/profile"
	"subqc/internal/rewrite"
	"subqc/internal/rules"
)

// Report is the machine-readable outcome of one QC run. It is a pure
// aggregation of the run's outputs; building it has no side effects and
// the same inputs always produce the same report.
type Report struct {
	RunID        string    `json:"runId"`
	ProfileID    string    `json:"profileId"`
	SourceFile   string    `json:"sourceFile,omitempty"`
	SourceFormat string    `json:"sourceFormat"`
	Mode         string    `json:"mode"`
	GeneratedAt  time.Time `json:"generatedAt"`

	// Issues is the full evaluation of the input document; Residual is
	// what remains after fixes. In mode none the two are identical.
	Issues    []rules.Issue       `json:"issues"`
	Residual  []rules.Issue       `json:"residual"`
	Fixes     []autofix.FixRecord `json:"fixes,omitempty"`
	Proposals []rewrite.Proposal  `json:"proposals,omitempty"`

	RuleCounts     map[string]int `json:"ruleCounts"`
	ResidualCounts map[string]int `json:"residualCounts"`
	SeverityCounts map[string]int `json:"severityCounts"`

	Metrics  rules.Metrics `json:"metrics"`
	Warnings []string      `json:"warnings,omitempty"`
	// GuidelineURLs point reviewers at the style guides the profile
	// encodes.
	GuidelineURLs []string `json:"guidelineURLs,omitempty"`
}

// Input bundles everything one QC run produced.
type Input struct {
	RunID        string
	Profile      *profile.Profile
	SourceFile   string
	SourceFormat string
	Mode         autofix.Mode
	Issues       []rules.Issue
	Residual     []rules.Issue
	Fixes        []autofix.FixRecord
	Proposals    []rewrite.Proposal
	Metrics      rules.Metrics
	Warnings     []string
	GeneratedAt  time.Time
}

// Build assembles the report and derives the per-rule and per-severity
// tallies.
func Build(in Input) *Report {
	r := &Report{
		RunID:          in.RunID,
		SourceFile:     in.SourceFile,
		SourceFormat:   in.SourceFormat,
		Mode:           string(in.Mode),
		GeneratedAt:    in.GeneratedAt.UTC(),
		Issues:         in.Issues,
		Residual:       in.Residual,
		Fixes:          in.Fixes,
		Proposals:      in.Proposals,
		RuleCounts:     countByRule(in.Issues),
		ResidualCounts: countByRule(in.Residual),
		SeverityCounts: countBySeverity(in.Residual),
		Metrics:        in.Metrics,
		Warnings:       in.Warnings,
	}
	if in.Profile != nil {
		r.ProfileID = in.Profile.ID
		r.GuidelineURLs = in.Profile.GuidelineURLs
	}
	return r
}

// HasErrors reports whether any residual issue is error-severity, the
// condition under which a QC run fails its gate.
func (r *Report) HasErrors() bool {
	return r.SeverityCounts[string(rules.SeverityError)] > 0
}

func countByRule(issues []rules.Issue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.RuleID]++
	}
	return counts
}

func countBySeverity(issues []rules.Issue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[string(issue.Severity)]++
	}
	return counts
}
