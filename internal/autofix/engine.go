package autofix

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"subqc/internal/logging"
	"subqc/internal/profile"
	"subqc/internal/rules"
	"subqc/internal/subtitle"
)

// Mode selects how far a QC run is allowed to change the document.
type Mode string

const (
	// ModeNone reports issues without touching the document.
	ModeNone Mode = "none"
	// ModeSafeOnly applies only deterministic transforms with verified
	// outcomes.
	ModeSafeOnly Mode = "safe-only"
	// ModeLLMRewrite additionally drafts text rewrites that require
	// explicit approval before anything is applied.
	ModeLLMRewrite Mode = "llm-rewrite-with-approval"
)

// ParseMode validates a mode string from config or CLI flags.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(raw))) {
	case ModeNone, "":
		return ModeNone, nil
	case ModeSafeOnly:
		return ModeSafeOnly, nil
	case ModeLLMRewrite:
		return ModeLLMRewrite, nil
	}
	return "", fmt.Errorf("unknown fix mode %q (use none, safe-only, or llm-rewrite-with-approval)", raw)
}

// FixRecord documents one applied transform: which rule, which cue, and
// the before/after rendering of the changed field.
type FixRecord struct {
	RuleID    string    `json:"ruleId"`
	CueIndex  int       `json:"cueIndex"`
	Before    string    `json:"before"`
	After     string    `json:"after"`
	AppliedAt time.Time `json:"appliedAt"`
}

// Result is the outcome of a safe-fix pass. Document is a fixed clone of
// the input; the caller's document is never mutated.
type Result struct {
	Document *subtitle.Document `json:"document"`
	Records  []FixRecord        `json:"records"`
	// Residual lists the issues still present after the pass, from a full
	// re-evaluation of the fixed document.
	Residual []rules.Issue `json:"residual"`
	Warnings []string      `json:"warnings,omitempty"`
}

type transform func(doc *subtitle.Document, pos int, prof *profile.Profile) bool

// fixOrder binds each auto-fixable rule to its transform. Timing
// transforms run before text transforms so reading-speed fixes see the
// original character counts; cosmetic substitutions run last.
var fixOrder = []struct {
	ruleID string
	apply  transform
}{
	{rules.RuleDurationMin, fixDurationMin},
	{rules.RuleDurationMax, fixDurationMax},
	{rules.RuleCPS, fixCPS},
	{rules.RuleLineCount, fixRewrap},
	{rules.RuleCPL, fixRewrap},
	{rules.RuleEllipsis, fixEllipsis},
	{rules.RuleSpeakerDash, fixSpeakerDash},
}

// Engine applies deterministic safe fixes and verifies every change.
type Engine struct {
	prof   *profile.Profile
	logger *slog.Logger
	now    func() time.Time
}

// New builds an engine for one profile. A nil logger disables logging.
func New(prof *profile.Profile, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{prof: prof, logger: logger, now: time.Now}
}

// Run applies safe fixes for the selected rules to a clone of doc.
// An empty selection means every auto-fixable rule. Unknown or
// non-fixable ids are reported as warnings, never errors. Each transform
// is verified against the affected region and reverted when it fails to
// improve the violation or introduces a new one.
//
// Cues are processed in ascending order, and within a cue in the fixed
// fixOrder priority, so the record list is a reproducible diff. The
// working clone is sorted and renumbered 1..n before fixing; records and
// residual issues reference the renumbered cues.
func (e *Engine) Run(doc *subtitle.Document, selected []string) *Result {
	result := &Result{Document: doc.Clone()}
	enabled := e.selectRules(selected, result)

	result.Document.SortByStart()
	result.Document.Reindex()

	for pos := range result.Document.Cues {
		e.fixCue(result, pos, enabled)
	}

	result.Document.SortByStart()
	result.Document.Reindex()
	result.Residual = rules.Evaluate(result.Document, e.prof)
	return result
}

// selectRules resolves the requested rule set to the enabled transforms.
func (e *Engine) selectRules(selected []string, result *Result) map[string]bool {
	enabled := make(map[string]bool, len(fixOrder))
	if len(selected) == 0 {
		for _, step := range fixOrder {
			enabled[step.ruleID] = true
		}
		return enabled
	}
	for _, id := range selected {
		switch {
		case !rules.IsKnownRule(id):
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown rule %q skipped", id))
		case !rules.IsAutoFixable(id):
			result.Warnings = append(result.Warnings, fmt.Sprintf("rule %q has no safe fix", id))
		default:
			enabled[id] = true
		}
	}
	return enabled
}

// fixCue applies the enabled transforms to one cue in priority order.
// The cue is re-evaluated before each step so violations already
// resolved by an earlier transform are not touched again.
func (e *Engine) fixCue(result *Result, pos int, enabled map[string]bool) {
	doc := result.Document
	for _, step := range fixOrder {
		if !enabled[step.ruleID] {
			continue
		}
		issue, ok := cueViolation(doc, pos, step.ruleID, e.prof)
		if !ok {
			continue
		}
		if step.ruleID == rules.RuleLineCount || step.ruleID == rules.RuleCPL {
			if rules.IsDualSpeaker(&doc.Cues[pos], e.prof.DualSpeakerDash) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("cue %d: dual-speaker text left for manual review", issue.CueIndex))
				continue
			}
		}
		e.applyVerified(result, issue, pos, step.apply)
	}
}

// cueViolation returns the cue's first current violation of one rule.
// Pair issues attached to a neighbour are not this cue's to fix.
func cueViolation(doc *subtitle.Document, pos int, ruleID string, prof *profile.Profile) (rules.Issue, bool) {
	index := doc.Cues[pos].Index
	for _, issue := range rules.EvaluateCue(doc, pos, prof) {
		if issue.RuleID == ruleID && issue.AutoFixable && issue.CueIndex == index {
			return issue, true
		}
	}
	return rules.Issue{}, false
}

// applyVerified runs one transform and keeps it only when the region
// re-check shows the violation resolved or strictly improved, with no
// new violations introduced. Anything else is reverted.
func (e *Engine) applyVerified(result *Result, issue rules.Issue, pos int, apply transform) {
	doc := result.Document
	before := doc.Cues[pos].Clone()
	regionBefore := rules.EvaluateCue(doc, pos, e.prof)

	if !apply(doc, pos, e.prof) {
		return
	}

	regionAfter := rules.EvaluateCue(doc, pos, e.prof)
	if !verifyRegion(issue, regionBefore, regionAfter, &before, &doc.Cues[pos]) {
		doc.Cues[pos] = before
		e.logger.Debug("fix reverted",
			logging.String("rule", issue.RuleID),
			logging.Int("cue", issue.CueIndex))
		return
	}

	record := FixRecord{
		RuleID:    issue.RuleID,
		CueIndex:  issue.CueIndex,
		Before:    renderCue(&before, issue.RuleID),
		After:     renderCue(&doc.Cues[pos], issue.RuleID),
		AppliedAt: e.now().UTC(),
	}
	result.Records = append(result.Records, record)
	e.logger.Debug("fix applied",
		logging.String("rule", issue.RuleID),
		logging.Int("cue", issue.CueIndex),
		logging.String("after", record.After))
}

// verifyRegion accepts a transform when the target violation is gone, or
// when a timing transform measurably shrank it, and the region gained no
// violation it did not already have.
func verifyRegion(target rules.Issue, before, after []rules.Issue, oldCue, newCue *subtitle.Cue) bool {
	for _, issue := range after {
		if issueIn(issue, before) {
			continue
		}
		if issue.Matches(target) {
			continue
		}
		return false
	}
	if !issueIn(target, after) {
		return true
	}
	// Residual target violation: keep only genuine partial progress on
	// timing rules, where the cap to the next cue limits the extension.
	switch target.RuleID {
	case rules.RuleDurationMin:
		return newCue.Duration() > oldCue.Duration()
	case rules.RuleCPS:
		return rules.CueCPS(newCue) < rules.CueCPS(oldCue)
	}
	return false
}

func issueIn(issue rules.Issue, list []rules.Issue) bool {
	for _, other := range list {
		if issue.Matches(other) {
			return true
		}
	}
	return false
}

// renderCue renders the field a rule's transform changes: the timing line
// for timing rules, the text for everything else.
func renderCue(cue *subtitle.Cue, ruleID string) string {
	switch ruleID {
	case rules.RuleDurationMin, rules.RuleDurationMax, rules.RuleCPS:
		return subtitle.FormatSRTTimecode(cue.Start) + " --> " + subtitle.FormatSRTTimecode(cue.End)
	}
	return cue.Text()
}
