package tasks

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	flagutils "github.com/tyemirov/promgr/internal/utils/flags"
	"github.com/tyemirov/promgr/internal/watch"
)

const (
	watchCommandUseConstant              = "watch <project> <task>"
	watchCommandShortDescription         = "Re-run a task when watched files change"
	watchCommandLongDescriptionConstant  = "watch runs the task once, then watches the task's declared directories (or the project root) and re-runs the dependency chain after each quiet period. Stop with Ctrl-C."
	watchCommandArgumentCountConstant    = 2
	durationDisplayRounding              = time.Millisecond
)

// BuildWatchCommand assembles the watch command.
func (builder *CommandBuilder) BuildWatchCommand() (*cobra.Command, error) {
	if validationError := builder.validate(); validationError != nil {
		return nil, validationError
	}

	watchCommand := &cobra.Command{
		Use:           watchCommandUseConstant,
		Short:         watchCommandShortDescription,
		Long:          watchCommandLongDescriptionConstant,
		Args:          cobra.ExactArgs(watchCommandArgumentCountConstant),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			session, sessionError := builder.newTaskSession(arguments[0], arguments[1])
			if sessionError != nil {
				return sessionError
			}

			executionFlags := flagutils.CollectExecutionFlags(command)
			debounceDuration := builder.resolveDebounceDuration(executionFlags.DebounceSet, executionFlags.DebounceMilliseconds)

			eventSource, sourceError := watch.NewFileSystemEventSource()
			if sourceError != nil {
				return sourceError
			}

			pathFilter := watch.NewIgnoreFilter(session.project.RootPath)
			watchPaths := collectWatchPaths(session)

			commandLogger := builder.LoggerProvider()
			executeCallback := func(executionContext context.Context) {
				runResults, planError := session.taskExecutor.ExecutePlan(executionContext, session.plan, session.executionContext, executionFlags.Force)
				renderRunResults(command.OutOrStdout(), runResults)
				if planError != nil {
					command.PrintErrln(planError)
				}
			}

			watchLoop, loopError := watch.NewLoop(eventSource, pathFilter, watchPaths, debounceDuration, executeCallback, commandLogger)
			if loopError != nil {
				return loopError
			}

			signalContext, stopSignalHandling := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stopSignalHandling()

			return watchLoop.Run(signalContext)
		},
	}

	flagutils.BindExecutionFlags(
		watchCommand,
		flagutils.ExecutionDefaults{DebounceMilliseconds: int(watch.DefaultDebounceDuration / time.Millisecond)},
		flagutils.ExecutionFlagDefinitions{
			Force:    flagutils.ExecutionFlagDefinition{Name: flagutils.ForceFlagName, Usage: flagutils.ForceFlagUsage, Shorthand: flagutils.ForceFlagShorthand, Enabled: true},
			Debounce: flagutils.ExecutionFlagDefinition{Name: flagutils.DebounceFlagName, Usage: flagutils.DebounceFlagUsage, Enabled: true},
		},
	)

	return watchCommand, nil
}

func (builder *CommandBuilder) resolveDebounceDuration(flagSet bool, flagMilliseconds int) time.Duration {
	if flagSet && flagMilliseconds > 0 {
		return time.Duration(flagMilliseconds) * time.Millisecond
	}
	if builder.DebounceDefaultProvider != nil {
		if configuredMilliseconds := builder.DebounceDefaultProvider(); configuredMilliseconds > 0 {
			return time.Duration(configuredMilliseconds) * time.Millisecond
		}
	}
	return watch.DefaultDebounceDuration
}

// collectWatchPaths unions the watch directories declared by every task in
// the plan, resolved against the project root. A plan with no declared
// directories watches the whole project.
func collectWatchPaths(session *taskSession) []string {
	seenPaths := make(map[string]struct{})
	watchPaths := make([]string, 0)
	for _, task := range session.plan.Tasks {
		for _, watchDirectory := range task.WatchDirectories {
			resolvedPath := watchDirectory
			if !filepath.IsAbs(resolvedPath) {
				resolvedPath = filepath.Join(session.project.RootPath, watchDirectory)
			}
			if _, seen := seenPaths[resolvedPath]; seen {
				continue
			}
			seenPaths[resolvedPath] = struct{}{}
			watchPaths = append(watchPaths, resolvedPath)
		}
	}
	if len(watchPaths) == 0 {
		watchPaths = append(watchPaths, session.project.RootPath)
	}
	return watchPaths
}
