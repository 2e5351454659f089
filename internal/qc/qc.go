package qc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subqc/internal/autofix"
	"subqc/internal/format"
	"subqc/internal/logging"
	"subqc/internal/profile"
	"subqc/internal/report"
	"subqc/internal/rewrite"
	"subqc/internal/rules"
	"subqc/internal/services"
	"subqc/internal/store"
)

// Engine ties decoding, evaluation, fixing, and persistence into the
// operations the CLI exposes.
type Engine struct {
	registry *profile.Registry
	store    *store.Store
	proposer rewrite.Proposer
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Options configures an Engine. Store and Proposer are optional: without
// a store nothing is persisted, without a proposer the llm mode fails
// up front.
type Options struct {
	Registry    *profile.Registry
	Store       *store.Store
	Proposer    rewrite.Proposer
	ProposalTTL time.Duration
	Logger      *slog.Logger
}

// New builds an engine.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("qc: profile registry required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		registry: opts.Registry,
		store:    opts.Store,
		proposer: opts.Proposer,
		ttl:      opts.ProposalTTL,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Request describes one QC invocation.
type Request struct {
	Input      []byte
	SourceFile string
	// FormatHint is the file extension or an explicit format name; empty
	// means sniff the content.
	FormatHint string
	ProfileID  string
	Mode       autofix.Mode
	// Rules restricts safe fixes to the named rule ids. Empty means all
	// auto-fixable rules.
	Rules []string
}

// Result is the outcome of an Analyze or Fix call.
type Result struct {
	Run *store.Run
	// Output is the re-encoded document in its source format. Nil for
	// analyze runs, which never rewrite anything.
	Output    []byte
	Proposals []rewrite.Proposal
}

// Analyze decodes, evaluates, and reports without changing anything.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Result, error) {
	req.Mode = autofix.ModeNone
	return e.run(ctx, req)
}

// Fix runs the requested fix mode. In safe-only mode the result carries
// the fixed document; in llm-rewrite-with-approval mode it additionally
// carries pending proposals for the violations safe fixes could not
// resolve. The input document itself is never modified.
func (e *Engine) Fix(ctx context.Context, req Request) (*Result, error) {
	if req.Mode == "" {
		req.Mode = autofix.ModeSafeOnly
	}
	return e.run(ctx, req)
}

func (e *Engine) run(ctx context.Context, req Request) (*Result, error) {
	prof, err := e.registry.Get(req.ProfileID)
	if err != nil {
		return nil, err
	}
	if req.Mode == autofix.ModeLLMRewrite && e.proposer == nil {
		return nil, services.Wrap(services.ErrRewrite, "qc", "fix", "no rewrite model configured", nil)
	}

	doc, err := format.Decode(req.Input, req.FormatHint)
	if err != nil {
		return nil, err
	}
	var warnings []string
	if doc.SkippedBlocks > 0 {
		warnings = append(warnings, fmt.Sprintf("%d malformed blocks skipped during decode", doc.SkippedBlocks))
	}

	issues := rules.Evaluate(doc, prof)
	e.logger.Info("document evaluated",
		logging.String("profile", prof.ID),
		logging.Int("cues", len(doc.Cues)),
		logging.Int("issues", len(issues)))

	result := &Result{}
	outDoc := doc
	residual := issues
	var fixes []autofix.FixRecord

	if req.Mode != autofix.ModeNone {
		fixResult := autofix.New(prof, e.logger).Run(doc, req.Rules)
		outDoc = fixResult.Document
		residual = fixResult.Residual
		fixes = fixResult.Records
		warnings = append(warnings, fixResult.Warnings...)

		encoded, err := format.Encode(outDoc)
		if err != nil {
			return nil, err
		}
		result.Output = encoded
	}

	run := store.NewRun(req.SourceFile, outDoc, nil)

	if req.Mode == autofix.ModeLLMRewrite {
		service := rewrite.NewService(e.proposer, prof, e.ttl, e.logger)
		proposals, err := service.Propose(ctx, run.ID, outDoc, residual)
		if err != nil {
			return nil, err
		}
		result.Proposals = proposals
	}

	rep := report.Build(report.Input{
		RunID:        run.ID,
		Profile:      prof,
		SourceFile:   req.SourceFile,
		SourceFormat: doc.SourceFormat,
		Mode:         req.Mode,
		Issues:       issues,
		Residual:     residual,
		Fixes:        fixes,
		Proposals:    result.Proposals,
		Metrics:      rules.ComputeMetrics(outDoc, prof),
		Warnings:     warnings,
		GeneratedAt:  e.now(),
	})
	attachReport(run, rep)
	result.Run = run

	if e.store != nil {
		if err := e.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("persist run: %w", err)
		}
		if len(result.Proposals) > 0 {
			if err := e.store.SaveProposals(ctx, result.Proposals); err != nil {
				return nil, fmt.Errorf("persist proposals: %w", err)
			}
		}
	}
	return result, nil
}

// ApproveProposal marks a stored proposal approved, expiring it first if
// its review window has closed.
func (e *Engine) ApproveProposal(ctx context.Context, id string) error {
	return e.transitionProposal(ctx, id, rewrite.StateApproved)
}

// RejectProposal marks a stored proposal rejected.
func (e *Engine) RejectProposal(ctx context.Context, id string) error {
	return e.transitionProposal(ctx, id, rewrite.StateRejected)
}

func (e *Engine) transitionProposal(ctx context.Context, id string, target rewrite.State) error {
	if e.store == nil {
		return fmt.Errorf("qc: no store configured")
	}
	p, err := e.store.GetProposal(ctx, id)
	if err != nil {
		return err
	}
	if p.Expired(e.now()) {
		if err := e.store.UpdateProposalState(ctx, id, rewrite.StateExpired); err != nil {
			return err
		}
		return fmt.Errorf("proposal %s expired at %s", id, p.ExpiresAt)
	}
	if p.State != rewrite.StatePending {
		return fmt.Errorf("proposal %s is %s, not pending", id, p.State)
	}
	return e.store.UpdateProposalState(ctx, id, target)
}

// ApplyProposal writes an approved proposal into its run's document and
// records the outcome as a new run chained to the original. The original
// run row is never touched.
func (e *Engine) ApplyProposal(ctx context.Context, id string) (*Result, error) {
	if e.store == nil {
		return nil, fmt.Errorf("qc: no store configured")
	}
	p, err := e.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	parent, err := e.store.GetRun(ctx, p.RunID)
	if err != nil {
		return nil, err
	}
	prof, err := e.registry.Get(parent.ProfileID)
	if err != nil {
		return nil, err
	}

	doc := parent.Document.Clone()
	if err := rewrite.Apply(doc, p); err != nil {
		return nil, err
	}

	residual := rules.Evaluate(doc, prof)
	run := store.NewRun(parent.SourceFile, doc, nil)
	run.ParentID = parent.ID
	rep := report.Build(report.Input{
		RunID:        run.ID,
		Profile:      prof,
		SourceFile:   parent.SourceFile,
		SourceFormat: doc.SourceFormat,
		Mode:         autofix.ModeLLMRewrite,
		Issues:       residual,
		Residual:     residual,
		Metrics:      rules.ComputeMetrics(doc, prof),
		GeneratedAt:  e.now(),
	})
	attachReport(run, rep)

	if err := e.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}

	encoded, err := format.Encode(doc)
	if err != nil {
		return nil, err
	}
	e.logger.Info("proposal applied",
		logging.String("proposal", p.ID),
		logging.Int("cue", p.CueIndex),
		logging.String("run", run.ID))
	return &Result{Run: run, Output: encoded}, nil
}

func attachReport(run *store.Run, rep *report.Report) {
	run.Report = rep
	run.ProfileID = rep.ProfileID
	run.Mode = rep.Mode
	run.FixCount = len(rep.Fixes)
	run.ResidualCount = len(rep.Residual)
}
