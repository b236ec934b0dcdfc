package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sort"
	"time"
)

const (
	shellExecutableNameConstant = "sh"
	shellCommandFlagConstant    = "-c"
)

// OSCommandRunner executes commands against the host operating system.
// Children start in their own process group so timeout and cancellation
// termination reaches every descendant, not just the direct child.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run spawns the command, waits for completion, and converts the outcome into an ExecutionResult.
// A configured timeout terminates the process tree and reports TimedOut with TimedOutExitCode;
// context cancellation terminates the process tree and surfaces the context error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	var executableCommand *exec.Cmd
	if command.UseShell {
		executableCommand = exec.Command(shellExecutableNameConstant, shellCommandFlagConstant, command.Executable)
	} else {
		executableCommand = exec.Command(command.Executable, command.Details.Arguments...)
	}

	executableCommand.Dir = command.Details.WorkingDirectory
	if command.Details.EnvironmentVariables != nil {
		executableCommand.Env = flattenEnvironment(command.Details.EnvironmentVariables)
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executableCommand.Stdout = combineWriters(&standardOutputBuffer, command.Details.StandardOutputWriter)
	executableCommand.Stderr = combineWriters(&standardErrorBuffer, command.Details.StandardErrorWriter)

	configureProcessGroup(executableCommand)

	if startError := executableCommand.Start(); startError != nil {
		return ExecutionResult{}, startError
	}

	waitChannel := make(chan error, 1)
	go func() {
		waitChannel <- executableCommand.Wait()
	}()

	var timeoutChannel <-chan time.Time
	if command.Details.Timeout > 0 {
		timeoutTimer := time.NewTimer(command.Details.Timeout)
		defer timeoutTimer.Stop()
		timeoutChannel = timeoutTimer.C
	}

	select {
	case <-executionContext.Done():
		terminateProcessTree(executableCommand)
		<-waitChannel
		return ExecutionResult{
			StandardOutput: standardOutputBuffer.String(),
			StandardError:  standardErrorBuffer.String(),
			ExitCode:       -1,
		}, executionContext.Err()
	case <-timeoutChannel:
		terminateProcessTree(executableCommand)
		<-waitChannel
		return ExecutionResult{
			StandardOutput: standardOutputBuffer.String(),
			StandardError:  standardErrorBuffer.String(),
			ExitCode:       TimedOutExitCode,
			TimedOut:       true,
		}, nil
	case waitError := <-waitChannel:
		exitCode := 0
		if waitError != nil {
			var exitError *exec.ExitError
			if !errors.As(waitError, &exitError) {
				return ExecutionResult{}, waitError
			}
			exitCode = exitError.ExitCode()
		}
		return ExecutionResult{
			StandardOutput: standardOutputBuffer.String(),
			StandardError:  standardErrorBuffer.String(),
			ExitCode:       exitCode,
		}, nil
	}
}

func combineWriters(captureWriter io.Writer, mirrorWriter io.Writer) io.Writer {
	if mirrorWriter == nil {
		return captureWriter
	}
	return io.MultiWriter(captureWriter, mirrorWriter)
}

func flattenEnvironment(environment map[string]string) []string {
	variableNames := make([]string, 0, len(environment))
	for variableName := range environment {
		variableNames = append(variableNames, variableName)
	}
	sort.Strings(variableNames)

	flattened := make([]string, 0, len(environment))
	for _, variableName := range variableNames {
		flattened = append(flattened, variableName+"="+environment[variableName])
	}
	return flattened
}
