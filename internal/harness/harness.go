package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

type uuidV7 struct{}

func (uuidV7) Generate() string { return uuid.Must(uuid.NewV7()).String() }

// Runner executes scenarios on a bounded worker pool.
type Runner struct {
	factory DriverFactory
	workers int
	logger  *slog.Logger
	ids     IDGenerator
	now     func() time.Time
	driver  string
	drift   string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the number of scenarios run in parallel. Default: 1.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithIDGenerator sets the run ID generator. Defaults to UUIDv7.
func WithIDGenerator(g IDGenerator) RunnerOption {
	return func(r *Runner) { r.ids = g }
}

// WithNow sets the time source for report timestamps and durations.
func WithNow(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithLabels records the driver name and drift description on reports.
func WithLabels(driver, drift string) RunnerOption {
	return func(r *Runner) {
		r.driver = driver
		r.drift = drift
	}
}

// NewRunner creates a Runner using factory for every scenario.
func NewRunner(factory DriverFactory, opts ...RunnerOption) *Runner {
	r := &Runner{
		factory: factory,
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:     uuidV7{},
		now:     time.Now,
		driver:  "http",
		drift:   "as-authored",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes scenarios and returns one Result per scenario, in input
// order. Scenario failures never abort the run; the returned error is
// non-nil only when ctx is cancelled, in which case the report is still
// complete and unfinished scenarios are execution failures.
//
// Execution flow:
//  1. Allocate the report and a result slot per scenario
//  2. Fan scenarios out to an errgroup limited to the worker count
//  3. Each worker creates a fresh driver, runs setup then steps, closes it
//  4. Wait for all workers and stamp the finish time
func (r *Runner) Run(ctx context.Context, scenarios []*Scenario) (*Report, error) {
	report := &Report{
		RunID:     r.ids.Generate(),
		Drift:     r.drift,
		Driver:    r.driver,
		StartedAt: r.now(),
		Results:   make([]Result, len(scenarios)),
	}
	r.logger.Info("run started", "run_id", report.RunID, "scenarios", len(scenarios), "workers", r.workers, "drift", r.drift)

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, s := range scenarios {
		g.Go(func() error {
			report.Results[i] = r.RunScenario(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = r.now()
	r.logger.Info("run finished",
		"run_id", report.RunID,
		"passed", report.Passed(),
		"failed", report.Failed(),
	)
	return report, ctx.Err()
}

// RunScenario executes a single scenario with a fresh driver.
func (r *Runner) RunScenario(ctx context.Context, s *Scenario) (res Result) {
	start := r.now()
	res = Result{Scenario: s.Name, Pass: true}
	defer func() {
		res.Duration = r.now().Sub(start)
	}()

	d, err := r.factory(ctx)
	if err != nil {
		r.fail(&res, PhaseSetup, 0, Step{}, fmt.Errorf("create driver: %w", err))
		return res
	}
	defer func() {
		if err := d.Close(); err != nil {
			r.logger.Warn("driver close failed", "scenario", s.Name, "error", err)
		}
	}()

	phases := []struct {
		phase Phase
		steps []Step
	}{
		{PhaseSetup, s.Setup},
		{PhaseSteps, s.Steps},
	}
	for _, p := range phases {
		for i, step := range p.steps {
			if err := ExecuteStep(ctx, d, step); err != nil {
				r.fail(&res, p.phase, i, step, err)
				return res
			}
			res.StepsRun++
		}
	}

	r.logger.Debug("scenario passed", "scenario", s.Name, "steps", res.StepsRun)
	return res
}

func (r *Runner) fail(res *Result, phase Phase, index int, step Step, err error) {
	res.Pass = false
	res.Kind = Classify(err)
	res.Phase = phase
	res.Step = index
	res.Action = step.Action()
	res.Locator = step.Locator()
	res.Error = err.Error()

	r.logger.Info("scenario failed",
		"scenario", res.Scenario,
		"kind", res.Kind,
		"phase", phase,
		"step", index,
		"locator", res.Locator,
		"error", err,
	)
}
