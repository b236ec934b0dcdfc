package tasks

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tyemirov/promgr/internal/runner"
	flagutils "github.com/tyemirov/promgr/internal/utils/flags"
)

const (
	runCommandUseConstant              = "run <project> <task>"
	runCommandShortDescriptionConstant = "Run a task and its dependencies"
	runCommandLongDescriptionConstant  = "run resolves the task's dependency chain inside the project's manifest and executes it in order, stopping at the first failure."
	runResultSuccessTemplateConstant   = "task %s: ok (%s)\n"
	runResultFailureTemplateConstant   = "task %s: exit %d (%s)\n"
	runResultTimeoutTemplateConstant   = "task %s: timeout (%s)\n"
	runCommandArgumentCountConstant    = 2
)

// BuildRunCommand assembles the run command.
func (builder *CommandBuilder) BuildRunCommand() (*cobra.Command, error) {
	if validationError := builder.validate(); validationError != nil {
		return nil, validationError
	}

	runCommand := &cobra.Command{
		Use:           runCommandUseConstant,
		Short:         runCommandShortDescriptionConstant,
		Long:          runCommandLongDescriptionConstant,
		Args:          cobra.ExactArgs(runCommandArgumentCountConstant),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			session, sessionError := builder.newTaskSession(arguments[0], arguments[1])
			if sessionError != nil {
				return sessionError
			}

			executionFlags := flagutils.CollectExecutionFlags(command)
			runResults, planError := session.taskExecutor.ExecutePlan(command.Context(), session.plan, session.executionContext, executionFlags.Force)
			renderRunResults(command.OutOrStdout(), runResults)
			if planError != nil {
				return planError
			}

			for _, runResult := range runResults {
				if !runResult.Succeeded() {
					return TaskFailedError{Result: runResult}
				}
			}
			return nil
		},
	}

	flagutils.BindExecutionFlags(
		runCommand,
		flagutils.ExecutionDefaults{},
		flagutils.ExecutionFlagDefinitions{
			Force: flagutils.ExecutionFlagDefinition{Name: flagutils.ForceFlagName, Usage: flagutils.ForceFlagUsage, Shorthand: flagutils.ForceFlagShorthand, Enabled: true},
		},
	)

	return runCommand, nil
}

func renderRunResults(outputWriter io.Writer, runResults []runner.RunResult) {
	for _, runResult := range runResults {
		switch {
		case runResult.TimedOut:
			fmt.Fprintf(outputWriter, runResultTimeoutTemplateConstant, runResult.TaskName, runResult.Duration.Round(durationDisplayRounding))
		case runResult.ExitCode != 0:
			fmt.Fprintf(outputWriter, runResultFailureTemplateConstant, runResult.TaskName, runResult.ExitCode, runResult.Duration.Round(durationDisplayRounding))
		default:
			fmt.Fprintf(outputWriter, runResultSuccessTemplateConstant, runResult.TaskName, runResult.Duration.Round(durationDisplayRounding))
		}
	}
}
