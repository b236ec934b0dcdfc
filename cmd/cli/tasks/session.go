// Package tasks provides the run and watch commands that execute project
// task plans.
package tasks

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tyemirov/promgr/internal/execshell"
	"github.com/tyemirov/promgr/internal/gitrepo"
	"github.com/tyemirov/promgr/internal/registry"
	"github.com/tyemirov/promgr/internal/runner"
	"github.com/tyemirov/promgr/internal/taskcfg"
	"github.com/tyemirov/promgr/internal/taskgraph"
)

const (
	loggerProviderMissingMessageConstant   = "logger provider not configured"
	registryProviderMissingMessageConstant = "registry provider not configured"
	homeProviderMissingMessageConstant     = "promgr home provider not configured"
	taskFailedTemplateConstant             = "task %q failed with exit code %d"
	taskTimedOutTemplateConstant           = "task %q timed out"
)

// Builder validation sentinels.
var (
	ErrLoggerProviderNotConfigured   = errors.New(loggerProviderMissingMessageConstant)
	ErrRegistryProviderNotConfigured = errors.New(registryProviderMissingMessageConstant)
	ErrHomeProviderNotConfigured     = errors.New(homeProviderMissingMessageConstant)
)

// TaskFailedError reports a plan aborted by a failing or timed-out task.
type TaskFailedError struct {
	Result runner.RunResult
}

// Error describes the failed run.
func (failureError TaskFailedError) Error() string {
	if failureError.Result.TimedOut {
		return fmt.Sprintf(taskTimedOutTemplateConstant, failureError.Result.TaskName)
	}
	return fmt.Sprintf(taskFailedTemplateConstant, failureError.Result.TaskName, failureError.Result.ExitCode)
}

// CommandBuilder assembles the run and watch commands.
type CommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	RegistryProvider             func() (*registry.Store, error)
	PromgrHomeProvider           func() (string, error)
	DebounceDefaultProvider      func() int
}

func (builder *CommandBuilder) validate() error {
	if builder.LoggerProvider == nil {
		return ErrLoggerProviderNotConfigured
	}
	if builder.RegistryProvider == nil {
		return ErrRegistryProviderNotConfigured
	}
	if builder.PromgrHomeProvider == nil {
		return ErrHomeProviderNotConfigured
	}
	return nil
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

// taskSession bundles everything needed to execute one project's plan.
type taskSession struct {
	project          registry.Project
	configuration    *taskcfg.ProjectConfiguration
	plan             taskgraph.ExecutionPlan
	executionContext runner.ExecutionContext
	taskExecutor     *runner.TaskExecutor
}

func (builder *CommandBuilder) newTaskSession(projectName string, taskName string) (*taskSession, error) {
	registryStore, registryError := builder.RegistryProvider()
	if registryError != nil {
		return nil, registryError
	}

	project, projectError := registryStore.GetProject(projectName)
	if projectError != nil {
		return nil, projectError
	}

	manifestParser := taskcfg.NewManifestParser(registryStore)
	configuration, configurationError := manifestParser.LoadProjectConfiguration(project.RootPath)
	if configurationError != nil {
		return nil, configurationError
	}

	plan, planError := taskgraph.Resolve(taskName, configuration)
	if planError != nil {
		return nil, planError
	}

	promgrHomePath, homeError := builder.PromgrHomeProvider()
	if homeError != nil {
		return nil, homeError
	}
	environmentBuilder := runner.NewEnvironmentBuilder(promgrHomePath, nil)
	executionContext := environmentBuilder.BuildExecutionContext(project.RootPath, project.VirtualEnvironmentPath)

	commandLogger := builder.LoggerProvider()
	shellExecutor, shellError := execshell.NewShellExecutor(commandLogger, execshell.NewOSCommandRunner(), builder.humanReadableLogging())
	if shellError != nil {
		return nil, shellError
	}

	repositoryManager, repositoryError := gitrepo.NewRepositoryManager(shellExecutor)
	if repositoryError != nil {
		return nil, repositoryError
	}

	taskExecutor, executorError := runner.NewTaskExecutor(shellExecutor, repositoryManager, commandLogger)
	if executorError != nil {
		return nil, executorError
	}

	return &taskSession{
		project:          project,
		configuration:    configuration,
		plan:             plan,
		executionContext: executionContext,
		taskExecutor:     taskExecutor,
	}, nil
}
