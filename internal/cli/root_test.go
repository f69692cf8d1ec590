package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/driftbench/internal/testutil"
)

// execute runs the CLI with deterministic run IDs and returns stdout and
// stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	cmd := newRootCommand(&RootOptions{
		RunIDs: testutil.NewFixedIDGenerator("run"),
		Now:    clock.Now,
	})
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "driftbench", cmd.Use)
	assert.Contains(t, cmd.Long, "data-testid")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"mutate"}, {"restore"}, {"serve"}, {"test"}, {"registry"}, {"templates", "export"}, {"history"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestMutateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	mutateCmd, _, err := cmd.Find([]string{"mutate"})
	require.NoError(t, err)

	dirFlag := mutateCmd.Flags().Lookup("direction")
	require.NotNil(t, dirFlag)
	assert.Equal(t, "d", dirFlag.Shorthand)
	assert.Equal(t, "drifted", dirFlag.DefValue)

	for _, name := range []string{"templates", "maps", "db", "dry-run"} {
		assert.NotNil(t, mutateCmd.Flags().Lookup(name), name)
	}

	restoreCmd, _, err := cmd.Find([]string{"restore"})
	require.NoError(t, err)
	assert.Nil(t, restoreCmd.Flags().Lookup("direction"), "restore always targets canonical names")
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	for _, name := range []string{"base-url", "templates", "maps", "drift", "scenarios", "run", "heal", "browser", "remote-url", "workers", "db"} {
		assert.NotNil(t, testCmd.Flags().Lookup(name), name)
	}
	detailsFlag := testCmd.Flags().Lookup("details")
	require.NotNil(t, detailsFlag)
	assert.Equal(t, "true", detailsFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := execute(t, "--format", "invalid", "registry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidConfigFile(t *testing.T) {
	path := writeFile(t, "driftbench.yaml", "workers: 0\n")

	out, _, err := execute(t, "--config", path, "registry")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
	assert.Contains(t, out, "workers")
}
