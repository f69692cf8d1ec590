package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/driftbench/internal/locator"
)

// Scenario is one end-to-end test case.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Setup establishes preconditions, e.g. logging in.
	// A failing setup step fails the scenario like any other step.
	Setup []Step `yaml:"setup,omitempty" json:"setup,omitempty"`

	// Steps is the flow under test.
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is a single action. Exactly one of Open, Fill, Click or Expect is set.
type Step struct {
	Open   string       `yaml:"open,omitempty" json:"open,omitempty"`
	Fill   locator.Name `yaml:"fill,omitempty" json:"fill,omitempty"`
	Click  locator.Name `yaml:"click,omitempty" json:"click,omitempty"`
	Expect locator.Name `yaml:"expect,omitempty" json:"expect,omitempty"`

	// Nth selects among several matches, zero-based.
	Nth int `yaml:"nth,omitempty" json:"nth,omitempty"`

	// Value is the text to type for Fill, or the expected control value
	// for Expect.
	Value *string `yaml:"value,omitempty" json:"value,omitempty"`

	Text     *string `yaml:"text,omitempty" json:"text,omitempty"`
	Contains string  `yaml:"contains,omitempty" json:"contains,omitempty"`
	Visible  *bool   `yaml:"visible,omitempty" json:"visible,omitempty"`
}

// Action returns the step's verb.
func (s Step) Action() string {
	switch {
	case s.Open != "":
		return "open"
	case s.Fill != "":
		return "fill"
	case s.Click != "":
		return "click"
	case s.Expect != "":
		return "expect"
	}
	return ""
}

// Locator returns the locator the step addresses, or "" for open.
func (s Step) Locator() locator.Name {
	switch {
	case s.Fill != "":
		return s.Fill
	case s.Click != "":
		return s.Click
	default:
		return s.Expect
	}
}

// String renders the step as "fill email-input" or "open /login".
func (s Step) String() string {
	if s.Open != "" {
		return "open " + s.Open
	}
	if s.Nth > 0 {
		return fmt.Sprintf("%s %s[%d]", s.Action(), s.Locator(), s.Nth)
	}
	return fmt.Sprintf("%s %s", s.Action(), s.Locator())
}

// ParseScenario decodes a scenario and validates it against reg.
// Unknown fields are rejected to catch typos.
func ParseScenario(data []byte, reg *locator.Registry) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := ValidateScenario(&s, reg); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string, reg *locator.Registry) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadScenarioDir loads every *.yaml file in dir, sorted by file name.
// Scenario names must be unique.
func LoadScenarioDir(dir string, reg *locator.Registry) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p, reg)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	if err := checkUniqueNames(scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

func checkUniqueNames(scenarios []*Scenario) error {
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// ValidateScenario checks required fields and that every locator the
// scenario references is registered. An unregistered name is a
// *locator.ConfigurationError.
func ValidateScenario(s *Scenario, reg *locator.Registry) error {
	if s.Name == "" {
		return fmt.Errorf("invalid scenario: name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("invalid scenario %s: description is required", s.Name)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("invalid scenario %s: steps list is required and must be non-empty", s.Name)
	}

	for i, step := range s.Setup {
		if err := validateStep(step, reg); err != nil {
			return fmt.Errorf("scenario %s: setup[%d]: %w", s.Name, i, err)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step, reg); err != nil {
			return fmt.Errorf("scenario %s: steps[%d]: %w", s.Name, i, err)
		}
	}
	return nil
}

func validateStep(step Step, reg *locator.Registry) error {
	actions := 0
	for _, set := range []bool{step.Open != "", step.Fill != "", step.Click != "", step.Expect != ""} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("exactly one of open, fill, click, expect is required (got %d)", actions)
	}
	if step.Nth < 0 {
		return fmt.Errorf("nth must be non-negative")
	}

	switch step.Action() {
	case "open":
		if step.Nth != 0 || step.Value != nil || step.Text != nil || step.Contains != "" || step.Visible != nil {
			return fmt.Errorf("open takes no other fields")
		}
		return nil
	case "fill":
		if step.Value == nil {
			return fmt.Errorf("fill %s: value is required", step.Fill)
		}
	case "expect":
		if step.Text == nil && step.Contains == "" && step.Value == nil && step.Visible == nil {
			return fmt.Errorf("expect %s: one of text, contains, value, visible is required", step.Expect)
		}
	}

	n := step.Locator()
	if err := locator.ValidateName(n); err != nil {
		return &locator.ConfigurationError{Name: n, Reason: err.Error()}
	}
	if !reg.Has(n) {
		return &locator.ConfigurationError{Name: n, Reason: "locator is not in the registry"}
	}
	return nil
}
