package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"subqc/internal/logging"
	"subqc/internal/profile"
	"subqc/internal/rules"
	"subqc/internal/services"
	"subqc/internal/subtitle"
)

// State tracks a proposal through the approval flow.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
	StateExpired  State = "expired"
)

// DefaultProposalTTL bounds how long a pending proposal stays actionable.
const DefaultProposalTTL = 24 * time.Hour

// Proposal is a drafted text replacement awaiting human review. Nothing
// in this package ever applies a proposal to a document; Apply requires
// an explicit approved proposal and re-checks the original text.
type Proposal struct {
	ID       string `json:"id"`
	RunID    string `json:"runId"`
	CueIndex int    `json:"cueIndex"`
	// Original is the cue text at proposal time. Apply refuses to touch a
	// cue whose text has since diverged.
	Original  []string  `json:"original"`
	Proposed  []string  `json:"proposed"`
	Rationale string    `json:"rationale,omitempty"`
	RuleIDs   []string  `json:"ruleIds"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the proposal's review window has closed.
func (p *Proposal) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// Proposer drafts replacement text for one cue. Implemented by Client;
// tests substitute a stub.
type Proposer interface {
	ProposeLines(ctx context.Context, req ProposalRequest) (Candidate, error)
}

// Service turns residual text violations into reviewed proposals.
type Service struct {
	proposer Proposer
	prof     *profile.Profile
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a proposal service. A zero ttl uses the default; a
// nil logger disables logging.
func NewService(proposer Proposer, prof *profile.Profile, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultProposalTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{proposer: proposer, prof: prof, ttl: ttl, logger: logger, now: time.Now}
}

// textRules are the violations a text rewrite can address. Timing-only
// rules are excluded: rewriting text cannot widen a gap.
var textRules = map[string]bool{
	rules.RuleCPS:       true,
	rules.RuleCPL:       true,
	rules.RuleLineCount: true,
}

// Propose drafts rewrites for residual text violations, one proposal per
// cue. Candidates that still violate the profile, or that introduce new
// violations, are discarded with a logged reason rather than surfaced.
func (s *Service) Propose(ctx context.Context, runID string, doc *subtitle.Document, residual []rules.Issue) ([]Proposal, error) {
	byCue := make(map[int][]string)
	var order []int
	for _, issue := range residual {
		if !textRules[issue.RuleID] {
			continue
		}
		if _, seen := byCue[issue.CueIndex]; !seen {
			order = append(order, issue.CueIndex)
		}
		byCue[issue.CueIndex] = appendUnique(byCue[issue.CueIndex], issue.RuleID)
	}

	var proposals []Proposal
	for _, cueIndex := range order {
		pos := doc.CueAt(cueIndex)
		if pos < 0 {
			continue
		}
		proposal, err := s.proposeCue(ctx, runID, doc, pos, byCue[cueIndex])
		if err != nil {
			return proposals, err
		}
		if proposal != nil {
			proposals = append(proposals, *proposal)
		}
	}
	return proposals, nil
}

func (s *Service) proposeCue(ctx context.Context, runID string, doc *subtitle.Document, pos int, ruleIDs []string) (*Proposal, error) {
	cue := &doc.Cues[pos]
	req := ProposalRequest{
		CueIndex:   cue.Index,
		Lines:      append([]string(nil), cue.Lines...),
		RuleIDs:    ruleIDs,
		MaxCPL:     s.prof.MaxCPL,
		MaxLines:   s.prof.MaxLines,
		MaxCPS:     s.prof.MaxCPS,
		DurationMs: cue.Duration(),
	}
	if pos > 0 {
		req.PrevText = doc.Cues[pos-1].Text()
	}
	if pos+1 < len(doc.Cues) {
		req.NextText = doc.Cues[pos+1].Text()
	}

	candidate, err := s.proposer.ProposeLines(ctx, req)
	if err != nil {
		return nil, services.Wrap(services.ErrRewrite, "rewrite", "propose", fmt.Sprintf("cue %d", cue.Index), err)
	}

	if reason := s.validateCandidate(doc, pos, candidate.Lines); reason != "" {
		s.logger.Warn("rewrite candidate discarded",
			logging.Int("cue", cue.Index),
			logging.String("reason", reason))
		return nil, nil
	}

	now := s.now().UTC()
	return &Proposal{
		ID:        uuid.NewString(),
		RunID:     runID,
		CueIndex:  cue.Index,
		Original:  append([]string(nil), cue.Lines...),
		Proposed:  candidate.Lines,
		Rationale: candidate.Rationale,
		RuleIDs:   ruleIDs,
		State:     StatePending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

// validateCandidate re-runs the text rules against the drafted lines.
// Returns a non-empty discard reason when the candidate fails.
func (s *Service) validateCandidate(doc *subtitle.Document, pos int, lines []string) string {
	trial := doc.Clone()
	trial.Cues[pos].Lines = append([]string(nil), lines...)
	for _, issue := range rules.EvaluateCue(trial, pos, s.prof) {
		if textRules[issue.RuleID] && issue.CueIndex == trial.Cues[pos].Index {
			return fmt.Sprintf("still violates %s: %s", issue.RuleID, issue.Message)
		}
	}
	return ""
}

// Approve marks a pending proposal approved. Expired proposals flip to
// expired instead and report an error.
func (s *Service) Approve(p *Proposal) error {
	return s.transition(p, StateApproved)
}

// Reject marks a pending proposal rejected.
func (s *Service) Reject(p *Proposal) error {
	return s.transition(p, StateRejected)
}

func (s *Service) transition(p *Proposal, target State) error {
	if p.Expired(s.now()) {
		p.State = StateExpired
		return fmt.Errorf("proposal %s expired at %s", p.ID, p.ExpiresAt.Format(time.RFC3339))
	}
	if p.State != StatePending {
		return fmt.Errorf("proposal %s is %s, not pending", p.ID, p.State)
	}
	p.State = target
	return nil
}

// Apply writes an approved proposal's text into the document. The cue's
// current text must still match the proposal's original; anything else
// fails verification and leaves the document untouched.
func Apply(doc *subtitle.Document, p *Proposal) error {
	if p.State != StateApproved {
		return services.Wrap(services.ErrFixVerification, "rewrite", "apply",
			fmt.Sprintf("proposal %s is %s, not approved", p.ID, p.State), nil)
	}
	pos := doc.CueAt(p.CueIndex)
	if pos < 0 {
		return services.Wrap(services.ErrFixVerification, "rewrite", "apply",
			fmt.Sprintf("cue %d not found", p.CueIndex), nil)
	}
	if !sameLines(doc.Cues[pos].Lines, p.Original) {
		return services.Wrap(services.ErrFixVerification, "rewrite", "apply",
			fmt.Sprintf("cue %d text changed since proposal %s was drafted", p.CueIndex, p.ID), nil)
	}
	doc.Cues[pos].Lines = append([]string(nil), p.Proposed...)
	return nil
}

func sameLines(a, b []string) bool {
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

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
