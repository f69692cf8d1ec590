package harness

import (
	"time"

	"github.com/roach88/driftbench/internal/locator"
)

// Phase names where in a scenario a failure happened.
type Phase string

const (
	PhaseSetup Phase = "setup"
	PhaseSteps Phase = "steps"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario string `json:"scenario"`
	Pass     bool   `json:"pass"`

	// The fields below describe the first failure; they are empty on pass.
	Kind    FailureKind  `json:"kind,omitempty"`
	Phase   Phase        `json:"phase,omitempty"`
	Step    int          `json:"step,omitempty"`
	Action  string       `json:"action,omitempty"`
	Locator locator.Name `json:"locator,omitempty"`
	Error   string       `json:"error,omitempty"`

	// StepsRun counts setup and flow steps that completed.
	StepsRun int           `json:"steps_run"`
	Duration time.Duration `json:"duration_ns"`
}

// Report collects the results of one run, in scenario order.
type Report struct {
	RunID      string    `json:"run_id"`
	Drift      string    `json:"drift"`
	Driver     string    `json:"driver"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Result  `json:"results"`
}

// Passed returns the number of passing scenarios.
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Pass {
			n++
		}
	}
	return n
}

// Failed returns the number of failing scenarios.
func (r *Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// OK reports whether every scenario passed.
func (r *Report) OK() bool {
	return r.Failed() == 0
}

// Result returns the result for the named scenario.
func (r *Report) Result(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Scenario == name {
			return res, true
		}
	}
	return Result{}, false
}

// FailuresByKind counts failing scenarios per kind.
func (r *Report) FailuresByKind() map[FailureKind]int {
	out := make(map[FailureKind]int)
	for _, res := range r.Results {
		if !res.Pass {
			out[res.Kind]++
		}
	}
	return out
}
