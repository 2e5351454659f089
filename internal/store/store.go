package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"subqc/internal/config"
	"subqc/internal/report"
	"subqc/internal/rewrite"
	"subqc/internal/subtitle"
)

// Store persists runs and rewrite proposals in SQLite. A file lock in
// the data directory keeps concurrent CLI invocations from interleaving
// writes.
type Store struct {
	db       *sql.DB
	path     string
	lock     *flock.Flock
	lockPath string
}

// ErrNotFound is returned for lookups of unknown run or proposal ids.
var ErrNotFound = errors.New("not found")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the run database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "subqc.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another subqc instance holds %s", lockPath)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock, lockPath: lockPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close closes the database and releases the data-directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// SaveRun inserts a run row. Runs are append-only; a re-run or an
// applied proposal produces a new row whose ParentID points here.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	doc, err := run.marshalDocument()
	if err != nil {
		return err
	}
	rep, err := run.marshalReport()
	if err != nil {
		return err
	}
	var parent any
	if run.ParentID != "" {
		parent = run.ParentID
	}
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO runs (id, parent_id, created_at, source_file, source_format,
			profile_id, mode, document, report, fix_count, residual_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, parent, run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.SourceFile, run.SourceFormat, run.ProfileID, run.Mode,
		doc, rep, run.FixCount, run.ResidualCount)
}

// GetRun loads a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `
		SELECT id, parent_id, created_at, source_file, source_format,
			profile_id, mode, document, report, fix_count, residual_count
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun returns the newest run for a source file, or ErrNotFound.
func (s *Store) LatestRun(ctx context.Context, sourceFile string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `
		SELECT id, parent_id, created_at, source_file, source_format,
			profile_id, mode, document, report, fix_count, residual_count
		FROM runs WHERE source_file = ?
		ORDER BY created_at DESC LIMIT 1`, sourceFile)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), `
		SELECT id, parent_id, created_at, source_file, source_format,
			profile_id, mode, document, report, fix_count, residual_count
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		parent    sql.NullString
		createdAt string
		document  string
		repBody   string
	)
	err := row.Scan(&run.ID, &parent, &createdAt, &run.SourceFile, &run.SourceFormat,
		&run.ProfileID, &run.Mode, &document, &repBody, &run.FixCount, &run.ResidualCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.ParentID = parent.String
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	run.Document = &subtitle.Document{}
	if err := json.Unmarshal([]byte(document), run.Document); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	run.Report = &report.Report{}
	if err := json.Unmarshal([]byte(repBody), run.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &run, nil
}

// SaveProposals inserts proposal rows for a run.
func (s *Store) SaveProposals(ctx context.Context, proposals []rewrite.Proposal) error {
	for _, p := range proposals {
		original, err := json.Marshal(p.Original)
		if err != nil {
			return fmt.Errorf("encode original lines: %w", err)
		}
		proposed, err := json.Marshal(p.Proposed)
		if err != nil {
			return fmt.Errorf("encode proposed lines: %w", err)
		}
		err = s.execWithoutResultRetry(ctx, `
			INSERT INTO proposals (id, run_id, cue_index, original, proposed,
				rationale, rule_ids, state, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.RunID, p.CueIndex, string(original), string(proposed),
			p.Rationale, strings.Join(p.RuleIDs, ","), string(p.State),
			p.CreatedAt.UTC().Format(time.RFC3339Nano),
			p.ExpiresAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert proposal %s: %w", p.ID, err)
		}
	}
	return nil
}

// GetProposal loads a proposal by id.
func (s *Store) GetProposal(ctx context.Context, id string) (*rewrite.Proposal, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `
		SELECT id, run_id, cue_index, original, proposed, rationale,
			rule_ids, state, created_at, expires_at
		FROM proposals WHERE id = ?`, id)
	return scanProposal(row)
}

// ListProposals returns a run's proposals in creation order.
func (s *Store) ListProposals(ctx context.Context, runID string) ([]rewrite.Proposal, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `
		SELECT id, run_id, cue_index, original, proposed, rationale,
			rule_ids, state, created_at, expires_at
		FROM proposals WHERE run_id = ? ORDER BY created_at, cue_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []rewrite.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

func scanProposal(row rowScanner) (*rewrite.Proposal, error) {
	var (
		p         rewrite.Proposal
		original  string
		proposed  string
		ruleIDs   string
		state     string
		createdAt string
		expiresAt string
	)
	err := row.Scan(&p.ID, &p.RunID, &p.CueIndex, &original, &proposed,
		&p.Rationale, &ruleIDs, &state, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan proposal: %w", err)
	}
	if err := json.Unmarshal([]byte(original), &p.Original); err != nil {
		return nil, fmt.Errorf("decode original lines: %w", err)
	}
	if err := json.Unmarshal([]byte(proposed), &p.Proposed); err != nil {
		return nil, fmt.Errorf("decode proposed lines: %w", err)
	}
	if ruleIDs != "" {
		p.RuleIDs = strings.Split(ruleIDs, ",")
	}
	p.State = rewrite.State(state)
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	return &p, nil
}

// UpdateProposalState persists a state transition.
func (s *Store) UpdateProposalState(ctx context.Context, id string, state rewrite.State) error {
	res, err := s.execWithRetry(ctx, `UPDATE proposals SET state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return fmt.Errorf("update proposal state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update proposal state: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpirePending flips pending proposals past their expiry to expired and
// returns how many changed.
func (s *Store) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `
		UPDATE proposals SET state = ?
		WHERE state = ? AND expires_at < ?`,
		string(rewrite.StateExpired), string(rewrite.StatePending),
		now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("expire proposals: %w", err)
	}
	return res.RowsAffected()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
