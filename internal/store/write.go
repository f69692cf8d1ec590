package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/driftbench/internal/harness"
	"github.com/roach88/driftbench/internal/mutator"
)

const timeLayout = time.RFC3339Nano

// WriteRun inserts a run and its scenario results in one transaction and
// returns the run's seq. Writing the same run ID twice is an error.
func (s *Store) WriteRun(ctx context.Context, r *harness.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	seq := s.clock.Next()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, drift, driver, started_at, finished_at, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID,
		seq,
		r.Drift,
		r.Driver,
		r.StartedAt.UTC().Format(timeLayout),
		r.FinishedAt.UTC().Format(timeLayout),
		r.Passed(),
		r.Failed(),
	)
	if err != nil {
		return 0, fmt.Errorf("write run %s: %w", r.RunID, err)
	}

	for i, res := range r.Results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scenario_results
			(run_id, position, scenario, pass, kind, phase, step, action, locator, error, steps_run, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.RunID,
			i,
			res.Scenario,
			res.Pass,
			string(res.Kind),
			string(res.Phase),
			res.Step,
			res.Action,
			string(res.Locator),
			res.Error,
			res.StepsRun,
			int64(res.Duration),
		)
		if err != nil {
			return 0, fmt.Errorf("write result %s/%s: %w", r.RunID, res.Scenario, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run: commit: %w", err)
	}
	return seq, nil
}

// RecordMutation stores a mutation result. It implements mutator.Recorder.
func (s *Store) RecordMutation(ctx context.Context, m *mutator.MutationResult) error {
	warnings := make([]string, len(m.Warnings))
	for i, w := range m.Warnings {
		warnings[i] = w.String()
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("record mutation: marshal warnings: %w", err)
	}
	files := m.Files
	if files == nil {
		files = []mutator.FileChange{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("record mutation: marshal files: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mutations (seq, page, direction, substitutions, already_applied, warnings, files, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.clock.Next(),
		string(m.Page),
		m.Direction.String(),
		m.Substitutions,
		len(m.AlreadyApplied),
		string(warningsJSON),
		string(filesJSON),
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record mutation: %w", err)
	}
	return nil
}
