package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/driftbench/internal/harness"
	"github.com/roach88/driftbench/internal/locator"
	"github.com/roach88/driftbench/internal/mutator"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// RunSummary is one row of the runs table.
type RunSummary struct {
	Seq        int64     `json:"seq"`
	ID         string    `json:"id"`
	Drift      string    `json:"drift"`
	Driver     string    `json:"driver"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
}

// MutationRecord is one row of the mutations table.
type MutationRecord struct {
	Seq            int64                `json:"seq"`
	Page           locator.Page         `json:"page"`
	Direction      string               `json:"direction"`
	Substitutions  int                  `json:"substitutions"`
	AlreadyApplied int                  `json:"already_applied"`
	Warnings       []string             `json:"warnings"`
	Files          []mutator.FileChange `json:"files"`
	RecordedAt     time.Time            `json:"recorded_at"`
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT seq, id, drift, driver, started_at, finished_at, passed, failed
		FROM runs
		ORDER BY seq DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunSummary, error) {
	var r RunSummary
	var started, finished string
	if err := row.Scan(&r.Seq, &r.ID, &r.Drift, &r.Driver, &started, &finished, &r.Passed, &r.Failed); err != nil {
		return RunSummary{}, err
	}
	var err error
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return RunSummary{}, fmt.Errorf("parse started_at of run %s: %w", r.ID, err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return RunSummary{}, fmt.Errorf("parse finished_at of run %s: %w", r.ID, err)
	}
	return r, nil
}

// LatestRun returns the most recent run as a report.
func (s *Store) LatestRun(ctx context.Context) (*harness.Report, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY seq DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return s.ReadRun(ctx, id)
}

// ReadRun reconstructs the report of run id, results in their original order.
func (s *Store) ReadRun(ctx context.Context, id string) (*harness.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, drift, driver, started_at, finished_at, passed, failed
		FROM runs WHERE id = ?
	`, id)
	summary, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT scenario, pass, kind, phase, step, action, locator, error, steps_run, duration_ns
		FROM scenario_results
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query results of run %s: %w", id, err)
	}
	defer rows.Close()

	report := &harness.Report{
		RunID:      summary.ID,
		Drift:      summary.Drift,
		Driver:     summary.Driver,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Results:    []harness.Result{},
	}
	for rows.Next() {
		var res harness.Result
		var kind, phase, loc string
		var duration int64
		if err := rows.Scan(&res.Scenario, &res.Pass, &kind, &phase, &res.Step, &res.Action, &loc, &res.Error, &res.StepsRun, &duration); err != nil {
			return nil, fmt.Errorf("scan result of run %s: %w", id, err)
		}
		res.Kind = harness.FailureKind(kind)
		res.Phase = harness.Phase(phase)
		res.Locator = locator.Name(loc)
		res.Duration = time.Duration(duration)
		report.Results = append(report.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results of run %s: %w", id, err)
	}
	return report, nil
}

// ListMutations returns up to limit mutations, newest first. limit <= 0
// means all.
func (s *Store) ListMutations(ctx context.Context, limit int) ([]MutationRecord, error) {
	query := `
		SELECT seq, page, direction, substitutions, already_applied, warnings, files, recorded_at
		FROM mutations
		ORDER BY seq DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	records := []MutationRecord{}
	for rows.Next() {
		var m MutationRecord
		var page, warnings, files, recorded string
		if err := rows.Scan(&m.Seq, &page, &m.Direction, &m.Substitutions, &m.AlreadyApplied, &warnings, &files, &recorded); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		m.Page = locator.Page(page)
		if err := json.Unmarshal([]byte(warnings), &m.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshal warnings of mutation %d: %w", m.Seq, err)
		}
		if err := json.Unmarshal([]byte(files), &m.Files); err != nil {
			return nil, fmt.Errorf("unmarshal files of mutation %d: %w", m.Seq, err)
		}
		if m.RecordedAt, err = time.Parse(timeLayout, recorded); err != nil {
			return nil, fmt.Errorf("parse recorded_at of mutation %d: %w", m.Seq, err)
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutations: %w", err)
	}
	return records, nil
}
