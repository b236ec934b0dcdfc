// Package taskcfg defines task declarations and loads them from a project's
// promgr.toml manifest.
package taskcfg

import "sort"

// CommandSpec describes how a task's process is launched. Shell commands are
// handed to the system shell verbatim; direct commands name an executable and
// its arguments explicitly.
type CommandSpec struct {
	Executable string
	Arguments  []string
	Shell      bool
}

// TaskDefinition is one named task declared by a project manifest. Definitions
// are immutable after parsing.
type TaskDefinition struct {
	Name              string
	Command           CommandSpec
	Description       string
	WatchDirectories  []string
	DependsOn         []string
	FailOnDirtyBranch bool
	TimeoutSeconds    uint
}

// ProjectConfiguration owns the tasks parsed from a single manifest.
type ProjectConfiguration struct {
	ProjectName string
	RootPath    string
	Tasks       map[string]*TaskDefinition
}

// Task returns the named definition when declared.
func (configuration *ProjectConfiguration) Task(taskName string) (*TaskDefinition, bool) {
	definition, found := configuration.Tasks[taskName]
	return definition, found
}

// TaskNames lists the declared task names in lexical order.
func (configuration *ProjectConfiguration) TaskNames() []string {
	names := make([]string, 0, len(configuration.Tasks))
	for taskName := range configuration.Tasks {
		names = append(names, taskName)
	}
	sort.Strings(names)
	return names
}
