package flags_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	flagutils "github.com/tyemirov/promgr/internal/utils/flags"
)

const (
	testDebounceDefaultConstant  = 500
	testDebounceOverrideConstant = "250"
)

func newFlaggedCommand() *cobra.Command {
	command := &cobra.Command{Use: "run", RunE: func(command *cobra.Command, arguments []string) error { return nil }}
	flagutils.BindExecutionFlags(
		command,
		flagutils.ExecutionDefaults{DebounceMilliseconds: testDebounceDefaultConstant},
		flagutils.ExecutionFlagDefinitions{
			Force:    flagutils.ExecutionFlagDefinition{Name: flagutils.ForceFlagName, Usage: flagutils.ForceFlagUsage, Shorthand: flagutils.ForceFlagShorthand, Enabled: true},
			Debounce: flagutils.ExecutionFlagDefinition{Name: flagutils.DebounceFlagName, Usage: flagutils.DebounceFlagUsage, Enabled: true},
		},
	)
	return command
}

func TestCollectExecutionFlagsDefaults(testInstance *testing.T) {
	command := newFlaggedCommand()
	require.NoError(testInstance, command.Execute())

	executionFlags := flagutils.CollectExecutionFlags(command)
	require.False(testInstance, executionFlags.Force)
	require.False(testInstance, executionFlags.ForceSet)
	require.Equal(testInstance, testDebounceDefaultConstant, executionFlags.DebounceMilliseconds)
	require.False(testInstance, executionFlags.DebounceSet)
}

func TestCollectExecutionFlagsOverrides(testInstance *testing.T) {
	command := newFlaggedCommand()
	command.SetArgs([]string{"--force", "--debounce", testDebounceOverrideConstant})
	require.NoError(testInstance, command.Execute())

	executionFlags := flagutils.CollectExecutionFlags(command)
	require.True(testInstance, executionFlags.Force)
	require.True(testInstance, executionFlags.ForceSet)
	require.Equal(testInstance, 250, executionFlags.DebounceMilliseconds)
	require.True(testInstance, executionFlags.DebounceSet)
}

func TestBoolFlagOnUndefinedFlag(testInstance *testing.T) {
	command := &cobra.Command{Use: "bare"}
	_, _, flagError := flagutils.BoolFlag(command, flagutils.ForceFlagName)
	require.ErrorIs(testInstance, flagError, flagutils.ErrFlagNotDefined)
}
