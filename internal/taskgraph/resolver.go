// Package taskgraph orders task dependencies into executable plans.
package taskgraph

import (
	"fmt"
	"strings"

	"github.com/tyemirov/promgr/internal/taskcfg"
)

const (
	unknownTaskTemplateConstant      = "unknown task %q"
	cyclicDependencyTemplate         = "dependency cycle: %s"
	cyclePathSeparatorConstant       = " -> "
	unknownTaskReferencedByTemplate  = "unknown task %q (required by %q)"
	visitStateUnvisited              = visitState(0)
	visitStateInProgress             = visitState(1)
	visitStateDone                   = visitState(2)
)

type visitState int

// UnknownTaskError reports a reference to an undeclared task.
type UnknownTaskError struct {
	TaskName     string
	RequiredBy   string
}

// Error describes the missing declaration.
func (unknownError UnknownTaskError) Error() string {
	if len(unknownError.RequiredBy) > 0 {
		return fmt.Sprintf(unknownTaskReferencedByTemplate, unknownError.TaskName, unknownError.RequiredBy)
	}
	return fmt.Sprintf(unknownTaskTemplateConstant, unknownError.TaskName)
}

// CyclicDependencyError carries the closed dependency loop that blocked
// planning. Path starts and ends on the same task name.
type CyclicDependencyError struct {
	Path []string
}

// Error renders the full cycle.
func (cycleError CyclicDependencyError) Error() string {
	return fmt.Sprintf(cyclicDependencyTemplate, strings.Join(cycleError.Path, cyclePathSeparatorConstant))
}

// ExecutionPlan is a dependency-ordered task sequence. Every task appears at
// most once and strictly after everything it depends on.
type ExecutionPlan struct {
	Tasks []*taskcfg.TaskDefinition
}

// TaskNames lists the plan's task names in execution order.
func (plan ExecutionPlan) TaskNames() []string {
	names := make([]string, 0, len(plan.Tasks))
	for _, task := range plan.Tasks {
		names = append(names, task.Name)
	}
	return names
}

// Resolve computes the execution plan for the target task. Dependencies are
// visited in declared order, so plans are deterministic for a given manifest.
func Resolve(targetTaskName string, configuration *taskcfg.ProjectConfiguration) (ExecutionPlan, error) {
	if _, declared := configuration.Task(targetTaskName); !declared {
		return ExecutionPlan{}, UnknownTaskError{TaskName: targetTaskName}
	}

	resolution := &resolutionWalk{
		configuration: configuration,
		states:        make(map[string]visitState, len(configuration.Tasks)),
	}
	if walkError := resolution.visit(targetTaskName, ""); walkError != nil {
		return ExecutionPlan{}, walkError
	}
	return ExecutionPlan{Tasks: resolution.ordered}, nil
}

type resolutionWalk struct {
	configuration *taskcfg.ProjectConfiguration
	states        map[string]visitState
	activePath    []string
	ordered       []*taskcfg.TaskDefinition
}

func (walk *resolutionWalk) visit(taskName string, requiredBy string) error {
	switch walk.states[taskName] {
	case visitStateDone:
		return nil
	case visitStateInProgress:
		return CyclicDependencyError{Path: walk.closeCycle(taskName)}
	}

	definition, declared := walk.configuration.Task(taskName)
	if !declared {
		return UnknownTaskError{TaskName: taskName, RequiredBy: requiredBy}
	}

	walk.states[taskName] = visitStateInProgress
	walk.activePath = append(walk.activePath, taskName)

	for _, dependencyName := range definition.DependsOn {
		if dependencyError := walk.visit(dependencyName, taskName); dependencyError != nil {
			return dependencyError
		}
	}

	walk.activePath = walk.activePath[:len(walk.activePath)-1]
	walk.states[taskName] = visitStateDone
	walk.ordered = append(walk.ordered, definition)
	return nil
}

// closeCycle slices the active path from the repeated task onward and appends
// the repeated name so the reported loop is closed.
func (walk *resolutionWalk) closeCycle(repeatedTaskName string) []string {
	cycleStart := 0
	for pathIndex, pathTaskName := range walk.activePath {
		if pathTaskName == repeatedTaskName {
			cycleStart = pathIndex
			break
		}
	}
	cyclePath := append([]string(nil), walk.activePath[cycleStart:]...)
	return append(cyclePath, repeatedTaskName)
}
