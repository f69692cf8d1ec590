package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/driftbench/internal/locator"
)

func TestLoadCatalog(t *testing.T) {
	scenarios, err := LoadCatalog(locator.Default())
	require.NoError(t, err)
	require.Len(t, scenarios, 10)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"cart_remove_all",
		"cart_remove_item",
		"checkout_completes",
		"checkout_empty_cart",
		"continue_shopping_visible",
		"forgot_password_link_visible",
		"login_empty_email",
		"login_empty_password",
		"login_success",
		"logout_resets_cart",
	}, names)
}

func TestLoadCatalog_LoginSuccessCredentials(t *testing.T) {
	scenarios, err := LoadCatalog(locator.Default())
	require.NoError(t, err)

	var login *Scenario
	for _, s := range scenarios {
		if s.Name == "login_success" {
			login = s
		}
	}
	require.NotNil(t, login)

	filled := make(map[locator.Name]string)
	var welcome string
	for _, step := range login.Steps {
		if step.Fill != "" && step.Value != nil {
			filled[step.Fill] = *step.Value
		}
		if step.Expect == locator.CartWelcome && step.Text != nil {
			welcome = *step.Text
		}
	}
	assert.Equal(t, "user@shop.com", filled[locator.EmailInput])
	assert.Equal(t, "password123", filled[locator.PasswordInput])
	assert.Equal(t, "Welcome, user@shop.com", welcome)
}

// Every registered name of both pages is exercised by the catalog.
func TestLoadCatalog_CoversRegistry(t *testing.T) {
	reg := locator.Default()
	scenarios, err := LoadCatalog(reg)
	require.NoError(t, err)

	used := make(map[locator.Name]bool)
	for _, s := range scenarios {
		for _, step := range append(append([]Step{}, s.Setup...), s.Steps...) {
			if n := step.Locator(); n != "" {
				used[n] = true
			}
		}
	}
	for _, page := range reg.Pages() {
		for _, n := range reg.Names(page) {
			assert.True(t, used[n], "locator %s is never used", n)
		}
	}
}

func TestParseScenario(t *testing.T) {
	data := []byte(`
name: demo
description: "demo"
steps:
  - open: /login
  - fill: email-input
    value: ""
  - click: submit-button
  - expect: login-error
    text: "Email and password are required"
    visible: true
`)
	s, err := ParseScenario(data, locator.Default())
	require.NoError(t, err)
	require.Len(t, s.Steps, 4)

	assert.Equal(t, "open", s.Steps[0].Action())
	assert.Equal(t, "open /login", s.Steps[0].String())
	assert.Equal(t, locator.EmailInput, s.Steps[1].Locator())
	require.NotNil(t, s.Steps[1].Value)
	assert.Equal(t, "", *s.Steps[1].Value)
	assert.Equal(t, "click submit-button", s.Steps[2].String())
	require.NotNil(t, s.Steps[3].Visible)
	assert.True(t, *s.Steps[3].Visible)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		wantConfig bool
		contains   string
	}{
		{
			name:     "unknown field",
			yaml:     "name: x\ndescription: d\nsteps:\n  - open: /\n    wait: 3\n",
			contains: "field wait not found",
		},
		{
			name:     "missing name",
			yaml:     "description: d\nsteps:\n  - open: /\n",
			contains: "name is required",
		},
		{
			name:     "missing steps",
			yaml:     "name: x\ndescription: d\n",
			contains: "steps list is required",
		},
		{
			name:     "two actions",
			yaml:     "name: x\ndescription: d\nsteps:\n  - open: /\n    click: submit-button\n",
			contains: "exactly one of",
		},
		{
			name:     "fill without value",
			yaml:     "name: x\ndescription: d\nsteps:\n  - fill: email-input\n",
			contains: "value is required",
		},
		{
			name:     "expect without check",
			yaml:     "name: x\ndescription: d\nsteps:\n  - expect: cart-count\n",
			contains: "one of text, contains, value, visible",
		},
		{
			name:       "unregistered locator",
			yaml:       "name: x\ndescription: d\nsteps:\n  - click: old-submit-btn\n",
			wantConfig: true,
			contains:   "not in the registry",
		},
		{
			name:       "drifted name is not canonical",
			yaml:       "name: x\ndescription: d\nsteps:\n  - click: login-button\n",
			wantConfig: true,
		},
		{
			name:       "invalid locator syntax",
			yaml:       "name: x\ndescription: d\nsteps:\n  - click: Submit_Button\n",
			wantConfig: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), locator.Default())
			require.Error(t, err)
			assert.Equal(t, tt.wantConfig, locator.IsConfigurationError(err), err.Error())
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestLoadScenarioDir(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios", locator.Default())
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "wrong_total", scenarios[0].Name)
}

func TestLoadScenarioDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	content := []byte("name: same\ndescription: d\nsteps:\n  - open: /\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), content, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), content, 0644))

	_, err := LoadScenarioDir(dir, locator.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate scenario name "same"`)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"), locator.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestSelect(t *testing.T) {
	scenarios, err := LoadCatalog(locator.Default())
	require.NoError(t, err)

	got, err := Select(scenarios, []string{"login_success", "cart_remove_item"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cart_remove_item", got[0].Name, "catalog order is kept")
	assert.Equal(t, "login_success", got[1].Name)

	all, err := Select(scenarios, nil)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	_, err = Select(scenarios, []string{"nope"})
	assert.Error(t, err)
}
