package report

import (
	"encoding/json"
	"testing"
	"time"

	"subqc/internal/autofix"
	"subqc/internal/profile"
	"subqc/internal/rules"
)

func sampleInput() Input {
	return Input{
		RunID: "run-1",
		Profile: &profile.Profile{
			ID:            "Netflix-SV",
			GuidelineURLs: []string{"https://example.org/style-guide"},
		},
		SourceFile:   "episode.srt",
		SourceFormat: "srt",
		Mode:         autofix.ModeSafeOnly,
		Issues: []rules.Issue{
			{RuleID: rules.RuleCPL, Severity: rules.SeverityWarning, CueIndex: 1},
			{RuleID: rules.RuleCPL, Severity: rules.SeverityWarning, CueIndex: 2},
			{RuleID: rules.RuleGap, Severity: rules.SeverityWarning, CueIndex: 2, EndCueIndex: 3},
		},
		Residual: []rules.Issue{
			{RuleID: rules.RuleGap, Severity: rules.SeverityWarning, CueIndex: 2, EndCueIndex: 3},
		},
		Fixes: []autofix.FixRecord{
			{RuleID: rules.RuleCPL, CueIndex: 1},
			{RuleID: rules.RuleCPL, CueIndex: 2},
		},
		Metrics:     rules.Metrics{CueCount: 3, AvgCPS: 12.5},
		GeneratedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildTallies(t *testing.T) {
	r := Build(sampleInput())
	if r.ProfileID != "Netflix-SV" {
		t.Fatalf("profile = %q", r.ProfileID)
	}
	if r.RuleCounts[rules.RuleCPL] != 2 || r.RuleCounts[rules.RuleGap] != 1 {
		t.Fatalf("rule counts = %+v", r.RuleCounts)
	}
	if r.ResidualCounts[rules.RuleCPL] != 0 || r.ResidualCounts[rules.RuleGap] != 1 {
		t.Fatalf("residual counts = %+v", r.ResidualCounts)
	}
	if r.SeverityCounts["warning"] != 1 {
		t.Fatalf("severity counts = %+v", r.SeverityCounts)
	}
	if len(r.GuidelineURLs) != 1 {
		t.Fatalf("guideline urls = %+v", r.GuidelineURLs)
	}
}

func TestHasErrors(t *testing.T) {
	in := sampleInput()
	if Build(in).HasErrors() {
		t.Fatal("warning-only report reported errors")
	}
	in.Residual = append(in.Residual, rules.Issue{RuleID: rules.RuleLineCount, Severity: rules.SeverityError, CueIndex: 1})
	if !Build(in).HasErrors() {
		t.Fatal("error-severity residual not detected")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	first, _ := json.Marshal(Build(sampleInput()))
	second, _ := json.Marshal(Build(sampleInput()))
	if string(first) != string(second) {
		t.Fatal("identical inputs produced different reports")
	}
}
