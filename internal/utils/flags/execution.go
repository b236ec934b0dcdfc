package flags

import (
	"github.com/spf13/cobra"

	"github.com/tyemirov/promgr/internal/utils"
)

const (
	// ForceFlagName exposes the shared force flag name.
	ForceFlagName = "force"
	// ForceFlagShorthand provides the shorthand for the force flag.
	ForceFlagShorthand = "f"
	// ForceFlagUsage describes the shared force flag purpose.
	ForceFlagUsage = "Run guarded tasks even when the worktree has uncommitted changes"
	// DebounceFlagName exposes the shared debounce flag name.
	DebounceFlagName = "debounce"
	// DebounceFlagUsage describes the shared debounce flag purpose.
	DebounceFlagUsage = "Quiet period in milliseconds before a change burst triggers a run"
)

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	Force    ExecutionFlagDefinition
	Debounce ExecutionFlagDefinition
}

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	Force                bool
	DebounceMilliseconds int
}

// BindExecutionFlags attaches standardized execution flags to the provided command.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults, definitions ExecutionFlagDefinitions) {
	if command == nil {
		return
	}

	flagSet := command.Flags()
	if definitions.Force.Enabled && len(definitions.Force.Name) > 0 {
		flagSet.BoolP(definitions.Force.Name, definitions.Force.Shorthand, defaults.Force, definitions.Force.Usage)
	}
	if definitions.Debounce.Enabled && len(definitions.Debounce.Name) > 0 {
		flagSet.Int(definitions.Debounce.Name, defaults.DebounceMilliseconds, definitions.Debounce.Usage)
	}
}

// CollectExecutionFlags inspects the command's flags to produce execution flag values.
func CollectExecutionFlags(command *cobra.Command) utils.ExecutionFlags {
	executionFlags := utils.ExecutionFlags{}
	if command == nil {
		return executionFlags
	}

	if forceValue, forceChanged, forceError := BoolFlag(command, ForceFlagName); forceError == nil {
		executionFlags.Force = forceValue
		executionFlags.ForceSet = forceChanged
	}

	if debounceValue, debounceChanged, debounceError := IntFlag(command, DebounceFlagName); debounceError == nil {
		executionFlags.DebounceMilliseconds = debounceValue
		executionFlags.DebounceSet = debounceChanged
	}

	return executionFlags
}
