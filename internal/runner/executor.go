package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tyemirov/promgr/internal/execshell"
	"github.com/tyemirov/promgr/internal/taskcfg"
	"github.com/tyemirov/promgr/internal/taskgraph"
)

const (
	dirtyBranchErrorTemplateConstant          = "task %q refuses to run on a dirty worktree at %s"
	commandExecutorNotConfiguredMessage       = "command executor not configured"
	worktreeInspectorNotConfiguredMessage     = "worktree inspector not configured"
	executorLoggerNotConfiguredMessage        = "task executor logger not configured"
	taskStartedLogMessageConstant             = "task started"
	taskFinishedLogMessageConstant            = "task finished"
	planAbortedLogMessageConstant             = "plan aborted"
	taskNameLogFieldNameConstant              = "task"
	exitCodeLogFieldNameConstant              = "exit_code"
	durationLogFieldNameConstant              = "duration"
	timedOutLogFieldNameConstant              = "timed_out"
)

// ErrCommandExecutorNotConfigured indicates construction without a command executor.
var ErrCommandExecutorNotConfigured = errors.New(commandExecutorNotConfiguredMessage)

// ErrWorktreeInspectorNotConfigured indicates construction without a worktree inspector.
var ErrWorktreeInspectorNotConfigured = errors.New(worktreeInspectorNotConfiguredMessage)

// ErrExecutorLoggerNotConfigured indicates construction without a logger.
var ErrExecutorLoggerNotConfigured = errors.New(executorLoggerNotConfiguredMessage)

// DirtyBranchError reports a guarded task blocked by uncommitted changes.
type DirtyBranchError struct {
	TaskName       string
	RepositoryPath string
}

// Error describes the blocked task.
func (dirtyError DirtyBranchError) Error() string {
	return fmt.Sprintf(dirtyBranchErrorTemplateConstant, dirtyError.TaskName, dirtyError.RepositoryPath)
}

// RunResult captures one task execution outcome. Non-zero exit codes and
// timeouts are results, not errors.
type RunResult struct {
	TaskName string
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// Succeeded reports whether the task completed normally.
func (result RunResult) Succeeded() bool {
	return result.ExitCode == 0 && !result.TimedOut
}

// CommandExecutor runs shell commands and reports their outcome.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// WorktreeInspector answers whether a repository carries uncommitted changes.
type WorktreeInspector interface {
	IsWorktreeDirty(executionContext context.Context, repositoryPath string) (bool, error)
}

// TaskExecutor runs individual tasks and whole plans.
type TaskExecutor struct {
	commandExecutor   CommandExecutor
	worktreeInspector WorktreeInspector
	logger            *zap.Logger
}

// NewTaskExecutor validates collaborators and constructs a TaskExecutor.
func NewTaskExecutor(commandExecutor CommandExecutor, worktreeInspector WorktreeInspector, logger *zap.Logger) (*TaskExecutor, error) {
	if commandExecutor == nil {
		return nil, ErrCommandExecutorNotConfigured
	}
	if worktreeInspector == nil {
		return nil, ErrWorktreeInspectorNotConfigured
	}
	if logger == nil {
		return nil, ErrExecutorLoggerNotConfigured
	}
	return &TaskExecutor{commandExecutor: commandExecutor, worktreeInspector: worktreeInspector, logger: logger}, nil
}

// ExecuteTask runs one task inside the provided execution context. When the
// task guards against dirty worktrees and force is false, the worktree is
// inspected before anything is spawned.
func (executor *TaskExecutor) ExecuteTask(executionContext context.Context, task *taskcfg.TaskDefinition, runContext ExecutionContext, force bool) (RunResult, error) {
	if task.FailOnDirtyBranch && !force {
		worktreeDirty, inspectionError := executor.worktreeInspector.IsWorktreeDirty(executionContext, runContext.WorkingDirectory)
		if inspectionError != nil {
			return RunResult{TaskName: task.Name}, inspectionError
		}
		if worktreeDirty {
			return RunResult{TaskName: task.Name}, DirtyBranchError{TaskName: task.Name, RepositoryPath: runContext.WorkingDirectory}
		}
	}

	command := execshell.ShellCommand{
		Executable: task.Command.Executable,
		UseShell:   task.Command.Shell,
		Details: execshell.CommandDetails{
			Arguments:            task.Command.Arguments,
			WorkingDirectory:     runContext.WorkingDirectory,
			EnvironmentVariables: runContext.EnvironmentVariables,
			Timeout:              time.Duration(task.TimeoutSeconds) * time.Second,
		},
	}

	executor.logger.Info(taskStartedLogMessageConstant, zap.String(taskNameLogFieldNameConstant, task.Name))
	startedAt := time.Now()
	executionResult, executionError := executor.commandExecutor.Execute(executionContext, command)
	elapsed := time.Since(startedAt)

	if executionError != nil {
		var failedError execshell.CommandFailedError
		var timedOutError execshell.CommandTimedOutError
		switch {
		case errors.As(executionError, &failedError):
			executionResult = failedError.Result
		case errors.As(executionError, &timedOutError):
			executionResult = timedOutError.Result
		default:
			return RunResult{TaskName: task.Name, ExitCode: -1, Duration: elapsed}, executionError
		}
	}

	runResult := RunResult{
		TaskName: task.Name,
		ExitCode: executionResult.ExitCode,
		Duration: elapsed,
		TimedOut: executionResult.TimedOut,
	}
	executor.logger.Info(taskFinishedLogMessageConstant,
		zap.String(taskNameLogFieldNameConstant, runResult.TaskName),
		zap.Int(exitCodeLogFieldNameConstant, runResult.ExitCode),
		zap.Duration(durationLogFieldNameConstant, runResult.Duration),
		zap.Bool(timedOutLogFieldNameConstant, runResult.TimedOut),
	)
	return runResult, nil
}

// ExecutePlan runs the plan in order and stops after the first result that
// did not succeed. Gate and spawn failures abort the remainder of the plan.
func (executor *TaskExecutor) ExecutePlan(executionContext context.Context, plan taskgraph.ExecutionPlan, runContext ExecutionContext, force bool) ([]RunResult, error) {
	runResults := make([]RunResult, 0, len(plan.Tasks))
	for _, task := range plan.Tasks {
		runResult, runError := executor.ExecuteTask(executionContext, task, runContext, force)
		if runError != nil {
			return runResults, runError
		}
		runResults = append(runResults, runResult)
		if !runResult.Succeeded() {
			executor.logger.Warn(planAbortedLogMessageConstant,
				zap.String(taskNameLogFieldNameConstant, runResult.TaskName),
				zap.Int(exitCodeLogFieldNameConstant, runResult.ExitCode),
			)
			break
		}
	}
	return runResults, nil
}
