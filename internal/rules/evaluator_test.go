package rules

import (
	"strings"
	"testing"

	"subqc/internal/profile"
	"subqc/internal/subtitle"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		ID:              "test",
		MaxCPL:          42,
		MinCPL:          0,
		MaxLines:        2,
		MinDurationMs:   1000,
		MaxDurationMs:   7000,
		MinGapMs:        83,
		MaxCPS:          17.0,
		EllipsisChar:    "…",
		DualSpeakerDash: "-",
	}
}

func cue(index int, start, end int64, lines ...string) subtitle.Cue {
	return subtitle.Cue{Index: index, Start: start, End: end, Lines: lines}
}

func issuesFor(issues []Issue, ruleID string) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.RuleID == ruleID {
			out = append(out, issue)
		}
	}
	return out
}

func TestEvaluateCleanDocument(t *testing.T) {
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 2000, "Det här är en helt vanlig rad."),
		cue(2, 2100, 4100, "Och en till, lika oskyldig."),
	}}
	if issues := Evaluate(doc, testProfile()); len(issues) != 0 {
		t.Fatalf("clean document produced %d issues: %+v", len(issues), issues)
	}
}

func TestEvaluateLineLengthDependsOnProfile(t *testing.T) {
	line1 := "This line is thirty-four chars long"
	line2 := "and this one is thirty-two chars"
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 5000, line1, line2),
	}}

	if issues := issuesFor(Evaluate(doc, testProfile()), RuleCPL); len(issues) != 0 {
		t.Fatalf("42-cpl profile flagged lines under budget: %+v", issues)
	}

	strict := testProfile()
	strict.MaxCPL = 30
	issues := issuesFor(Evaluate(doc, strict), RuleCPL)
	if len(issues) != 2 {
		t.Fatalf("30-cpl profile produced %d cpl issues, want 2", len(issues))
	}
	for i, issue := range issues {
		if issue.Line != i+1 {
			t.Fatalf("issue %d attached to line %d, want %d", i, issue.Line, i+1)
		}
		if !issue.AutoFixable {
			t.Fatalf("cpl issue not marked auto-fixable: %+v", issue)
		}
	}
}

func TestEvaluateSeverityOverride(t *testing.T) {
	prof := testProfile()
	prof.Severities = map[string]string{RuleCPL: "error"}
	prof.MaxCPL = 10
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 5000, "long enough to trip the strict budget"),
	}}
	issues := issuesFor(Evaluate(doc, prof), RuleCPL)
	if len(issues) != 1 {
		t.Fatalf("got %d cpl issues, want 1", len(issues))
	}
	if issues[0].Severity != SeverityError {
		t.Fatalf("override ignored, severity = %s", issues[0].Severity)
	}
}

func TestEvaluateGapViolation(t *testing.T) {
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 2000, "Första repliken."),
		cue(2, 2040, 4000, "Andra repliken."),
	}}
	issues := issuesFor(Evaluate(doc, testProfile()), RuleGap)
	if len(issues) != 1 {
		t.Fatalf("got %d gap issues, want 1", len(issues))
	}
	issue := issues[0]
	if issue.CueIndex != 1 || issue.EndCueIndex != 2 {
		t.Fatalf("gap issue spans cues %d-%d, want 1-2", issue.CueIndex, issue.EndCueIndex)
	}
	if issue.AutoFixable {
		t.Fatal("gap must not be auto-fixable")
	}
}

func TestEvaluateGapSkipsDualSpeakerPairs(t *testing.T) {
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 2000, "- Vart ska du?", "- Hem."),
		cue(2, 2010, 4000, "- Redan?", "- Ja."),
	}}
	if issues := issuesFor(Evaluate(doc, testProfile()), RuleGap); len(issues) != 0 {
		t.Fatalf("dual-speaker pair still gap-flagged: %+v", issues)
	}
}

func TestEvaluateGapSkipsSimultaneousPairs(t *testing.T) {
	first := cue(1, 0, 2000, "Överst i bild.")
	second := cue(2, 0, 2000, "Nederst i bild.")
	first.Simultaneous = true
	second.Simultaneous = true
	doc := &subtitle.Document{Cues: []subtitle.Cue{first, second}}
	if issues := issuesFor(Evaluate(doc, testProfile()), RuleGap); len(issues) != 0 {
		t.Fatalf("simultaneous pair still gap-flagged: %+v", issues)
	}
}

func TestEvaluateDurationAndCPS(t *testing.T) {
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 500, "Kort."),
		cue(2, 1000, 9000, "Alldeles för lång visningstid."),
		cue(3, 10000, 11000, "Den här repliken har på tok för många tecken för en sekund."),
	}}
	issues := Evaluate(doc, testProfile())

	short := issuesFor(issues, RuleDurationMin)
	if len(short) != 1 || short[0].CueIndex != 1 {
		t.Fatalf("duration-min issues = %+v", short)
	}
	if short[0].SuggestedValue == "" || !strings.Contains(short[0].SuggestedValue, ":") {
		t.Fatalf("duration-min missing suggested end timecode: %+v", short[0])
	}
	long := issuesFor(issues, RuleDurationMax)
	if len(long) != 1 || long[0].CueIndex != 2 {
		t.Fatalf("duration-max issues = %+v", long)
	}
	fast := issuesFor(issues, RuleCPS)
	if len(fast) == 0 {
		t.Fatal("expected a cps issue for the crowded cue")
	}
	for _, issue := range fast {
		if issue.CueIndex == 2 {
			t.Fatalf("cue 2 within reading-speed budget flagged: %+v", issue)
		}
	}
}

func TestEvaluateEllipsisAndSpeakerDash(t *testing.T) {
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 2000, "Jag vet inte..."),
		cue(2, 2100, 4100, "- Vem är det?", "Ingen aning."),
	}}
	issues := Evaluate(doc, testProfile())

	ell := issuesFor(issues, RuleEllipsis)
	if len(ell) != 1 || ell[0].SuggestedValue != "…" {
		t.Fatalf("ellipsis issues = %+v", ell)
	}
	dash := issuesFor(issues, RuleSpeakerDash)
	if len(dash) != 1 || dash[0].CueIndex != 2 {
		t.Fatalf("speaker-dash issues = %+v", dash)
	}
}

func TestEvaluateOrderIsDeterministic(t *testing.T) {
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 400, "För kort och..."),
		cue(2, 420, 800, "Också för kort."),
	}}
	prof := testProfile()
	first := Evaluate(doc, prof)
	second := Evaluate(doc, prof)
	if len(first) != len(second) {
		t.Fatalf("issue counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Matches(second[i]) || first[i].Message != second[i].Message {
			t.Fatalf("issue %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
	// Cue 1's own issues come before the pair issue, which comes before
	// cue 2's issues.
	var lastCue1, firstCue2 = -1, -1
	for i, issue := range first {
		if issue.CueIndex == 1 && lastCue1 < i {
			lastCue1 = i
		}
		if issue.CueIndex == 2 && firstCue2 == -1 {
			firstCue2 = i
		}
	}
	if firstCue2 != -1 && lastCue1 > firstCue2 {
		t.Fatalf("issues not grouped by cue: %+v", first)
	}
}

func TestEvaluateCueChecksNeighbours(t *testing.T) {
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 2000, "Första."),
		cue(2, 2010, 4000, "Andra."),
		cue(3, 4020, 6000, "Tredje."),
	}}
	issues := issuesFor(EvaluateCue(doc, 1, testProfile()), RuleGap)
	if len(issues) != 2 {
		t.Fatalf("middle cue re-check found %d gap issues, want 2 (both sides): %+v", len(issues), issues)
	}
	if issues := EvaluateCue(doc, -1, testProfile()); issues != nil {
		t.Fatalf("out-of-range position produced issues: %+v", issues)
	}
}

func TestComputeMetrics(t *testing.T) {
	doc := &subtitle.Document{Cues: []subtitle.Cue{
		cue(1, 0, 2000, "Tjugo tecken i denna"),
		cue(2, 3000, 4000, "En replik som utan tvekan spränger lässhastighetsbudgeten rejält."),
	}}
	m := ComputeMetrics(doc, testProfile())
	if m.CueCount != 2 {
		t.Fatalf("CueCount = %d, want 2", m.CueCount)
	}
	if m.TotalDurationMs != 3000 {
		t.Fatalf("TotalDurationMs = %d, want 3000", m.TotalDurationMs)
	}
	if m.OverCPS != 1 {
		t.Fatalf("OverCPS = %d, want 1", m.OverCPS)
	}
	if m.AvgCPS <= 0 {
		t.Fatalf("AvgCPS = %v, want positive", m.AvgCPS)
	}
}

func TestKnownRuleIDs(t *testing.T) {
	ids := KnownRuleIDs()
	if len(ids) != len(catalogue) {
		t.Fatalf("KnownRuleIDs returned %d ids, want %d", len(ids), len(catalogue))
	}
	if !IsKnownRule(RuleGap) || IsKnownRule("no-such-rule") {
		t.Fatal("IsKnownRule misclassifies ids")
	}
	if IsAutoFixable(RuleGap) || !IsAutoFixable(RuleCPS) {
		t.Fatal("IsAutoFixable disagrees with the catalogue")
	}
}

func TestCatalogueBindsEveryRule(t *testing.T) {
	if len(catalogue) == 0 {
		t.Fatal("catalogue not populated")
	}
	seen := make(map[string]bool, len(catalogue))
	for _, r := range catalogue {
		if seen[r.id] {
			t.Fatalf("duplicate rule id %q", r.id)
		}
		seen[r.id] = true
		if (r.cue == nil) == (r.pair == nil) {
			t.Fatalf("rule %q must bind exactly one check function", r.id)
		}
		if got := findRule(r.id); got.id != r.id {
			t.Fatalf("findRule(%q) resolved %q", r.id, got.id)
		}
	}
}
