package execshell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	gitExecutableNameConstant                 = "git"
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	executableMissingMessageConstant          = "shell command executable not provided"
	commandStartMessageConstant               = "command execution starting"
	commandSuccessMessageConstant             = "command execution completed"
	commandFailureMessageConstant             = "command returned non-zero status"
	commandTimeoutMessageConstant             = "command terminated after exceeding its timeout"
	commandRunnerErrorMessageConstant         = "command execution error"
	executableFieldNameConstant               = "executable"
	commandArgumentsFieldNameConstant         = "arguments"
	workingDirectoryFieldNameConstant         = "working_directory"
	exitCodeFieldNameConstant                 = "exit_code"
	timeoutSecondsFieldNameConstant           = "timeout_seconds"
	standardErrorFieldNameConstant            = "stderr"
)

// TimedOutExitCode is reported for commands terminated after exceeding their timeout.
// The value follows the GNU timeout convention so callers can distinguish hangs from failures.
const TimedOutExitCode = 124

// CommandDetails describes command invocation properties.
// EnvironmentVariables, when non-nil, is the complete child environment;
// a nil map inherits the parent process environment unchanged.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	Timeout              time.Duration
	StandardOutputWriter io.Writer
	StandardErrorWriter  io.Writer
}

// ShellCommand represents a fully qualified command invocation.
// When UseShell is set, Executable holds an opaque shell command line
// dispatched through the system shell; otherwise Executable names a
// program resolved on the search path and Arguments are passed verbatim.
type ShellCommand struct {
	Executable string
	UseShell   bool
	Details    CommandDetails
}

// ExecutionResult captures observable command results.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
	TimedOut       bool
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ShellExecutor orchestrates running shell commands with logging.
type ShellExecutor struct {
	commandRunner        CommandRunner
	logger               *zap.Logger
	humanReadableLogging bool
}

var (
	// ErrLoggerNotConfigured indicates the logger dependency was missing.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the command runner dependency was missing.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrExecutableMissing indicates the command executable was not provided.
	ErrExecutableMissing = errors.New(executableMissingMessageConstant)
)

// CommandFailedError provides details about commands exiting with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

const commandFailureErrorMessageTemplateConstant = "%s exited with code %d"

// Error describes the failure in a readable format.
func (commandError CommandFailedError) Error() string {
	baseMessage := fmt.Sprintf(commandFailureErrorMessageTemplateConstant, commandError.Command.DisplayName(), commandError.Result.ExitCode)

	detail := strings.TrimSpace(commandError.Result.StandardError)
	if len(detail) == 0 {
		detail = strings.TrimSpace(commandError.Result.StandardOutput)
	}
	if len(detail) > 0 {
		lines := strings.Split(detail, "\n")
		maxLines := 3
		if len(lines) > maxLines {
			lines = lines[:maxLines]
		}
		normalized := make([]string, 0, len(lines))
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			normalized = append(normalized, trimmed)
		}
		if len(normalized) > 0 {
			baseMessage = fmt.Sprintf("%s: %s", baseMessage, strings.Join(normalized, " | "))
		}
	}

	return baseMessage
}

// CommandTimedOutError indicates the command exceeded its configured timeout and was terminated.
type CommandTimedOutError struct {
	Command ShellCommand
	Result  ExecutionResult
}

const commandTimedOutErrorMessageTemplateConstant = "%s timed out after %s"

// Error describes the timeout in a readable format.
func (timeoutError CommandTimedOutError) Error() string {
	return fmt.Sprintf(commandTimedOutErrorMessageTemplateConstant, timeoutError.Command.DisplayName(), timeoutError.Command.Details.Timeout)
}

// CommandExecutionError wraps unexpected execution failures from the runner.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

const commandExecutionErrorMessageTemplateConstant = "%s execution failed"

// Error describes the underlying runner failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorMessageTemplateConstant, executionError.Command.DisplayName())
}

// Unwrap exposes the underlying error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// DisplayName renders a short human-readable identifier for the command.
func (command ShellCommand) DisplayName() string {
	if command.UseShell {
		return fmt.Sprintf("shell command %q", command.Executable)
	}
	return fmt.Sprintf("%s command", command.Executable)
}

// NewShellExecutor builds an executor for the provided runner and logger.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		commandRunner:        commandRunner,
		logger:               logger,
		humanReadableLogging: humanReadableLogging,
	}, nil
}

// Execute runs the provided shell command and logs lifecycle events.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(strings.TrimSpace(command.Executable)) == 0 {
		return ExecutionResult{}, ErrExecutableMissing
	}

	if executor.humanReadableLogging {
		executor.logger.Info(fmt.Sprintf("Running %s", command.DisplayName()))
	} else {
		executor.logger.Info(commandStartMessageConstant,
			zap.String(executableFieldNameConstant, command.Executable),
			zap.Strings(commandArgumentsFieldNameConstant, command.Details.Arguments),
			zap.String(workingDirectoryFieldNameConstant, command.Details.WorkingDirectory),
			zap.Float64(timeoutSecondsFieldNameConstant, command.Details.Timeout.Seconds()),
		)
	}

	executionResult, runnerError := executor.commandRunner.Run(executionContext, command)
	if runnerError != nil {
		if executor.humanReadableLogging {
			executor.logger.Error(fmt.Sprintf("Unable to run %s: %v", command.DisplayName(), runnerError))
		} else {
			executor.logger.Error(commandRunnerErrorMessageConstant,
				zap.String(executableFieldNameConstant, command.Executable),
				zap.Error(runnerError),
			)
		}
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runnerError}
	}

	if executionResult.TimedOut {
		if executor.humanReadableLogging {
			executor.logger.Warn(fmt.Sprintf("%s timed out after %s", command.DisplayName(), command.Details.Timeout))
		} else {
			executor.logger.Warn(commandTimeoutMessageConstant,
				zap.String(executableFieldNameConstant, command.Executable),
				zap.Float64(timeoutSecondsFieldNameConstant, command.Details.Timeout.Seconds()),
			)
		}
		return executionResult, CommandTimedOutError{Command: command, Result: executionResult}
	}

	if executionResult.ExitCode != 0 {
		if executor.humanReadableLogging {
			executor.logger.Warn(fmt.Sprintf("%s exited with code %d", command.DisplayName(), executionResult.ExitCode))
		} else {
			executor.logger.Warn(commandFailureMessageConstant,
				zap.String(executableFieldNameConstant, command.Executable),
				zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
				zap.String(standardErrorFieldNameConstant, executionResult.StandardError),
			)
		}
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	if executor.humanReadableLogging {
		executor.logger.Info(fmt.Sprintf("Completed %s", command.DisplayName()))
	} else {
		executor.logger.Info(commandSuccessMessageConstant,
			zap.String(executableFieldNameConstant, command.Executable),
			zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
		)
	}
	return executionResult, nil
}

// ExecuteGit runs the git executable with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Executable: gitExecutableNameConstant, Details: details})
}
