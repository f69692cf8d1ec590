package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/driftbench/internal/harness"
	"github.com/roach88/driftbench/internal/locator"
	"github.com/roach88/driftbench/internal/mutator"
	"github.com/roach88/driftbench/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"), WithClock(clock), WithNow(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(id string) *harness.Report {
	start := testutil.Epoch
	return &harness.Report{
		RunID:      id,
		Drift:      "login=to_drifted",
		Driver:     "http",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Results: []harness.Result{
			{Scenario: "login_success", Pass: false, Kind: harness.KindLocatorResolution, Phase: harness.PhaseSteps,
				Step: 1, Action: "fill", Locator: locator.EmailInput, Error: "no element found", StepsRun: 1,
				Duration: 15 * time.Millisecond},
			{Scenario: "forgot_password_link_visible", Pass: true, StepsRun: 2, Duration: 3 * time.Millisecond},
		},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"runs", "scenario_results", "mutations"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestWriteRun_ReadRunRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := sampleReport("run-0001")

	seq, err := s.WriteRun(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	got, err := s.ReadRun(ctx, "run-0001")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadRun() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRun_DuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, sampleReport("run-0001"))
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, sampleReport("run-0001"))
	require.Error(t, err)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReadRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-0001", "run-0002", "run-0003"} {
		_, err := s.WriteRun(ctx, sampleReport(id))
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-0003", runs[0].ID)
	assert.Equal(t, "run-0002", runs[1].ID)
	assert.Equal(t, 1, runs[0].Passed)
	assert.Equal(t, 1, runs[0].Failed)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-0003", latest.RunID)
}

func TestOpen_ResumesClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, sampleReport("run-0001"))
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, sampleReport("run-0002"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	last, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	seq, err := s.WriteRun(ctx, sampleReport("run-0003"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestRecordMutation_FromMutator(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	form := `<input data-testid="email-input"><input data-testid="password-input"><button data-testid="submit-button">Go</button>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login_form.html"), []byte(form), 0644))
	m := mutator.New(dir, mutator.Manifest{locator.PageLogin: {"login_form.html"}},
		locator.DefaultRenameMaps(), mutator.WithRecorder(s))

	_, err := m.Mutate(ctx, locator.PageLogin, locator.ToDrifted)
	require.NoError(t, err)
	_, err = m.Mutate(ctx, locator.PageLogin, locator.ToDrifted)
	require.NoError(t, err)

	records, err := s.ListMutations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	second, first := records[0], records[1]
	assert.Greater(t, second.Seq, first.Seq)
	assert.Equal(t, locator.PageLogin, first.Page)
	assert.Equal(t, locator.ToDrifted.String(), first.Direction)
	assert.Equal(t, 3, first.Substitutions)
	assert.Equal(t, 0, first.AlreadyApplied)
	assert.Empty(t, first.Warnings)
	require.Len(t, first.Files, 1)
	assert.True(t, first.Files[0].Changed)

	assert.Equal(t, 0, second.Substitutions)
	assert.Equal(t, 3, second.AlreadyApplied)
	assert.False(t, second.RecordedAt.Before(first.RecordedAt))
}

func TestRecordMutation_StoresWarnings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.RecordMutation(ctx, &mutator.MutationResult{
		Page:      locator.PageCart,
		Direction: locator.ToDrifted,
		Warnings: []mutator.PartialMutationWarning{
			{Page: locator.PageCart, Direction: locator.ToDrifted, Pair: locator.Pair{From: "cart-total", To: "order-total"}},
		},
	})
	require.NoError(t, err)

	records, err := s.ListMutations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Warnings, 1)
	assert.Contains(t, records[0].Warnings[0], "cart-total not found on page cart")
	assert.Empty(t, records[0].Files)
	// Seq 1 is the mutation; the shared clock's Now then ticks to 2.
	assert.True(t, testutil.Epoch.Add(2*time.Second).Equal(records[0].RecordedAt))
}
