package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/tplcheck/internal/manifest"
)

// Run is one recorded validation of a template.
type Run struct {
	ID          string          `json:"id"`
	Seq         int64           `json:"seq"`
	Template    string          `json:"template"`
	Source      string          `json:"source,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Valid       bool            `json:"valid"`
	Failures    int             `json:"failures"`
	Report      json.RawMessage `json:"report"`
}

// NewRun builds a Run from a validation report.
func NewRun(id string, seq int64, r *manifest.Report) (Run, error) {
	data, err := marshalReport(r)
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:          id,
		Seq:         seq,
		Template:    r.Template,
		Source:      r.Source,
		Fingerprint: r.Fingerprint,
		Valid:       r.Valid(),
		Failures:    r.Failures(),
		Report:      data,
	}, nil
}

// WriteRun inserts a run record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, template, source, fingerprint, valid, failures, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Template,
		run.Source,
		run.Fingerprint,
		run.Valid,
		run.Failures,
		string(run.Report),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// NextSeq returns the next logical clock value: one past the highest stored seq.
func (s *Store) NextSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// RecordReports stores one run per report, all under a single seq value.
// Seq assignment and inserts happen in one transaction.
func (s *Store) RecordReports(ctx context.Context, gen IDGenerator, reports []*manifest.Report) ([]Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("record reports: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("record reports: next seq: %w", err)
	}

	runs := make([]Run, 0, len(reports))
	for _, r := range reports {
		run, err := NewRun(gen.Generate(), seq, r)
		if err != nil {
			return nil, fmt.Errorf("record reports: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO runs
			(id, seq, template, source, fingerprint, valid, failures, report)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			run.ID, run.Seq, run.Template, run.Source,
			run.Fingerprint, run.Valid, run.Failures, string(run.Report),
		)
		if err != nil {
			return nil, fmt.Errorf("record reports: insert %s: %w", run.Template, err)
		}
		runs = append(runs, run)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("record reports: commit: %w", err)
	}
	return runs, nil
}

// ReadRuns returns stored runs, optionally filtered by template name.
// An empty template returns every run.
// Results are ordered by seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadRuns(ctx context.Context, template string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, template, source, fingerprint, valid, failures, report
		FROM runs
		WHERE ? = '' OR template = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, template, template)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, template, source, fingerprint, valid, failures, report
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// LatestByFingerprint returns the most recent run for a fingerprint.
// The bool is false if no run matches.
func (s *Store) LatestByFingerprint(ctx context.Context, fingerprint string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, template, source, fingerprint, valid, failures, report
		FROM runs
		WHERE fingerprint = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, fingerprint)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var report string
	err := sc.Scan(
		&run.ID,
		&run.Seq,
		&run.Template,
		&run.Source,
		&run.Fingerprint,
		&run.Valid,
		&run.Failures,
		&report,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Report = json.RawMessage(report)
	return run, nil
}
