package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"subqc/internal/config"
	"subqc/internal/report"
	"subqc/internal/rewrite"
	"subqc/internal/rules"
	"subqc/internal/store"
	"subqc/internal/subtitle"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.ReportDir = t.TempDir()
	s, err := store.Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(sourceFile string) *store.Run {
	doc := &subtitle.Document{
		SourceFormat: "srt",
		Cues: []subtitle.Cue{
			{Index: 1, Start: 0, End: 2000, Lines: []string{"Hej."}},
		},
	}
	rep := report.Build(report.Input{
		RunID:        "ignored",
		SourceFile:   sourceFile,
		SourceFormat: "srt",
		Residual: []rules.Issue{
			{RuleID: rules.RuleGap, Severity: rules.SeverityWarning, CueIndex: 1, EndCueIndex: 2},
		},
		GeneratedAt: time.Now(),
	})
	return store.NewRun(sourceFile, doc, rep)
}

func TestSaveAndGetRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run := sampleRun("episode.srt")
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	loaded, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if loaded.SourceFile != "episode.srt" || loaded.SourceFormat != "srt" {
		t.Fatalf("loaded = %+v", loaded)
	}
	if len(loaded.Document.Cues) != 1 || loaded.Document.Cues[0].Lines[0] != "Hej." {
		t.Fatalf("document round-trip failed: %+v", loaded.Document)
	}
	if loaded.ResidualCount != 1 {
		t.Fatalf("residual count = %d", loaded.ResidualCount)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openStore(t)
	if _, err := s.GetRun(context.Background(), "no-such-run"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRunsAreAppendOnly(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := sampleRun("episode.srt")
	if err := s.SaveRun(ctx, first); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second := sampleRun("episode.srt")
	second.ParentID = first.ID
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	if err := s.SaveRun(ctx, second); err != nil {
		t.Fatalf("SaveRun second: %v", err)
	}

	latest, err := s.LatestRun(ctx, "episode.srt")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("latest = %s, want %s", latest.ID, second.ID)
	}
	if latest.ParentID != first.ID {
		t.Fatalf("parent chain broken: %q", latest.ParentID)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
}

func TestProposalLifecycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run := sampleRun("episode.srt")
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	now := time.Now().UTC()
	proposals := []rewrite.Proposal{
		{
			ID:        "p1",
			RunID:     run.ID,
			CueIndex:  1,
			Original:  []string{"lång originaltext"},
			Proposed:  []string{"kort"},
			Rationale: "condensed",
			RuleIDs:   []string{"cps", "cpl"},
			State:     rewrite.StatePending,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		},
		{
			ID:        "p2",
			RunID:     run.ID,
			CueIndex:  2,
			Original:  []string{"annan text"},
			Proposed:  []string{"kortare"},
			RuleIDs:   []string{"cps"},
			State:     rewrite.StatePending,
			CreatedAt: now,
			ExpiresAt: now.Add(-time.Minute),
		},
	}
	if err := s.SaveProposals(ctx, proposals); err != nil {
		t.Fatalf("SaveProposals: %v", err)
	}

	loaded, err := s.GetProposal(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	if len(loaded.RuleIDs) != 2 || loaded.RuleIDs[1] != "cpl" {
		t.Fatalf("rule ids = %v", loaded.RuleIDs)
	}
	if loaded.Original[0] != "lång originaltext" {
		t.Fatalf("original = %v", loaded.Original)
	}

	expired, err := s.ExpirePending(ctx, time.Now())
	if err != nil {
		t.Fatalf("ExpirePending: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}
	if p2, _ := s.GetProposal(ctx, "p2"); p2.State != rewrite.StateExpired {
		t.Fatalf("p2 state = %s", p2.State)
	}

	if err := s.UpdateProposalState(ctx, "p1", rewrite.StateApproved); err != nil {
		t.Fatalf("UpdateProposalState: %v", err)
	}
	if p1, _ := s.GetProposal(ctx, "p1"); p1.State != rewrite.StateApproved {
		t.Fatalf("p1 state = %s", p1.State)
	}
	if err := s.UpdateProposalState(ctx, "ghost", rewrite.StateRejected); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	list, err := s.ListProposals(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListProposals: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("proposals = %d, want 2", len(list))
	}
}

func TestOpenRefusesSecondInstance(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.ReportDir = t.TempDir()

	first, err := store.Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()

	if _, err := store.Open(&cfg); err == nil {
		t.Fatal("second Open on the same data dir succeeded")
	}
}
