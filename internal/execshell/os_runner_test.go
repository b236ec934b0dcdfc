//go:build !windows

package execshell_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/promgr/internal/execshell"
)

const (
	testShellEchoCommandConstant     = "echo hello && echo oops 1>&2"
	testShellExitCommandConstant     = "exit 3"
	testShellSleepCommandConstant    = "sleep 5"
	testRunnerTimeoutConstant        = 200 * time.Millisecond
	testRunnerTimeoutOvershootBound  = 2 * time.Second
	testEnvironmentVariableName      = "PROMGR_RUNNER_TEST_VALUE"
	testEnvironmentVariableValue     = "runner-value"
	testEnvironmentEchoShellCommand  = "echo $" + testEnvironmentVariableName
	testShellFalseCaseNameConstant   = "nonzero_exit"
	testShellCaptureCaseNameConstant = "captures_streams"
)

func TestOSCommandRunnerCapturesOutput(testInstance *testing.T) {
	testInstance.Run(testShellCaptureCaseNameConstant, func(testInstance *testing.T) {
		commandRunner := execshell.NewOSCommandRunner()
		executionResult, runError := commandRunner.Run(context.Background(), execshell.ShellCommand{
			Executable: testShellEchoCommandConstant,
			UseShell:   true,
		})
		require.NoError(testInstance, runError)
		require.Equal(testInstance, 0, executionResult.ExitCode)
		require.Contains(testInstance, executionResult.StandardOutput, "hello")
		require.Contains(testInstance, executionResult.StandardError, "oops")
	})
}

func TestOSCommandRunnerReportsExitCode(testInstance *testing.T) {
	testInstance.Run(testShellFalseCaseNameConstant, func(testInstance *testing.T) {
		commandRunner := execshell.NewOSCommandRunner()
		executionResult, runError := commandRunner.Run(context.Background(), execshell.ShellCommand{
			Executable: testShellExitCommandConstant,
			UseShell:   true,
		})
		require.NoError(testInstance, runError)
		require.Equal(testInstance, 3, executionResult.ExitCode)
		require.False(testInstance, executionResult.TimedOut)
	})
}

func TestOSCommandRunnerAppliesEnvironment(testInstance *testing.T) {
	commandRunner := execshell.NewOSCommandRunner()
	executionResult, runError := commandRunner.Run(context.Background(), execshell.ShellCommand{
		Executable: testEnvironmentEchoShellCommand,
		UseShell:   true,
		Details: execshell.CommandDetails{
			EnvironmentVariables: map[string]string{
				"PATH":                     "/usr/bin:/bin",
				testEnvironmentVariableName: testEnvironmentVariableValue,
			},
		},
	})
	require.NoError(testInstance, runError)
	require.Contains(testInstance, executionResult.StandardOutput, testEnvironmentVariableValue)
}

func TestOSCommandRunnerEnforcesTimeout(testInstance *testing.T) {
	commandRunner := execshell.NewOSCommandRunner()

	startedAt := time.Now()
	executionResult, runError := commandRunner.Run(context.Background(), execshell.ShellCommand{
		Executable: testShellSleepCommandConstant,
		UseShell:   true,
		Details:    execshell.CommandDetails{Timeout: testRunnerTimeoutConstant},
	})
	elapsed := time.Since(startedAt)

	require.NoError(testInstance, runError)
	require.True(testInstance, executionResult.TimedOut)
	require.Equal(testInstance, execshell.TimedOutExitCode, executionResult.ExitCode)
	require.Less(testInstance, elapsed, testRunnerTimeoutOvershootBound)
}

func TestOSCommandRunnerHonorsCancellation(testInstance *testing.T) {
	commandRunner := execshell.NewOSCommandRunner()

	executionContext, cancelFunction := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancelFunction()
	}()

	startedAt := time.Now()
	_, runError := commandRunner.Run(executionContext, execshell.ShellCommand{
		Executable: testShellSleepCommandConstant,
		UseShell:   true,
	})
	elapsed := time.Since(startedAt)

	require.ErrorIs(testInstance, runError, context.Canceled)
	require.Less(testInstance, elapsed, testRunnerTimeoutOvershootBound)
}
