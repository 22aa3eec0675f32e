package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cprum/internal/ir"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "cprum", cmd.Use)
	assert.Contains(t, cmd.Long, "debug HUD")
	assert.Equal(t, ir.RuntimeVersion, cmd.Version)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"tag"},
		{"hud"},
		{"clear"},
		{"theme"},
		{"fetch"},
		{"favorites"},
		{"favorites", "add"},
		{"favorites", "remove"},
		{"storage"},
		{"lab", "error"},
		{"lab", "storm"},
		{"lab", "compute"},
		{"lab", "longtask"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
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

	for _, name := range []string{"db", "config", "base-url"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestFetchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	fetchCmd, _, err := cmd.Find([]string{"fetch"})
	require.NoError(t, err)

	methodFlag := fetchCmd.Flags().Lookup("method")
	require.NotNil(t, methodFlag)
	assert.Equal(t, "X", methodFlag.Shorthand)
	assert.Equal(t, "GET", methodFlag.DefValue)

	require.NotNil(t, fetchCmd.Flags().Lookup("xhr"))
	require.NotNil(t, fetchCmd.Flags().Lookup("delay"))
}

func TestLabStormFlags(t *testing.T) {
	cmd := NewRootCommand()
	stormCmd, _, err := cmd.Find([]string{"lab", "storm"})
	require.NoError(t, err)

	countFlag := stormCmd.Flags().Lookup("count")
	require.NotNil(t, countFlag)
	assert.Equal(t, "80", countFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "hud"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
