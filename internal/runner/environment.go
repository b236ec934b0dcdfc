// Package runner executes resolved task plans inside project-scoped
// execution contexts.
package runner

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	pathEnvironmentVariableNameConstant       = "PATH"
	virtualEnvEnvironmentVariableNameConstant = "VIRTUAL_ENV"
	pythonHomeEnvironmentVariableNameConstant = "PYTHONHOME"
	pipCacheEnvironmentVariableNameConstant   = "PIP_CACHE_DIR"
	pipCacheDirectoryNameConstant             = "pip-cache"
	windowsOperatingSystemNameConstant        = "windows"
	windowsVenvBinaryDirectoryNameConstant    = "Scripts"
	posixVenvBinaryDirectoryNameConstant      = "bin"
)

// ExecutionContext carries the working directory and complete child
// environment for one project's task runs.
type ExecutionContext struct {
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// EnvironmentSnapshotProvider supplies the inherited environment in
// KEY=VALUE form. Defaults to os.Environ.
type EnvironmentSnapshotProvider func() []string

// EnvironmentBuilder derives execution contexts from project settings
// without mutating the process environment.
type EnvironmentBuilder struct {
	promgrHomePath      string
	environmentSnapshot EnvironmentSnapshotProvider
}

// NewEnvironmentBuilder constructs a builder rooted at the promgr home
// directory. A nil snapshot provider falls back to os.Environ.
func NewEnvironmentBuilder(promgrHomePath string, environmentSnapshot EnvironmentSnapshotProvider) *EnvironmentBuilder {
	if environmentSnapshot == nil {
		environmentSnapshot = os.Environ
	}
	return &EnvironmentBuilder{promgrHomePath: promgrHomePath, environmentSnapshot: environmentSnapshot}
}

// BuildExecutionContext snapshots the inherited environment and, when the
// project declares a virtual environment, activates it the way shell
// activation scripts do: the venv binary directory is prepended to PATH,
// VIRTUAL_ENV is set, PYTHONHOME is removed, and pip downloads share one
// cache under the promgr home.
func (builder *EnvironmentBuilder) BuildExecutionContext(projectRootPath string, virtualEnvironmentPath string) ExecutionContext {
	environmentVariables := parseEnvironmentSnapshot(builder.environmentSnapshot())

	trimmedVenvPath := strings.TrimSpace(virtualEnvironmentPath)
	if len(trimmedVenvPath) > 0 {
		venvBinaryPath := filepath.Join(trimmedVenvPath, venvBinaryDirectoryName())
		existingPath := environmentVariables[pathEnvironmentVariableNameConstant]
		if len(existingPath) > 0 {
			environmentVariables[pathEnvironmentVariableNameConstant] = venvBinaryPath + string(os.PathListSeparator) + existingPath
		} else {
			environmentVariables[pathEnvironmentVariableNameConstant] = venvBinaryPath
		}
		environmentVariables[virtualEnvEnvironmentVariableNameConstant] = trimmedVenvPath
		delete(environmentVariables, pythonHomeEnvironmentVariableNameConstant)
		environmentVariables[pipCacheEnvironmentVariableNameConstant] = filepath.Join(builder.promgrHomePath, pipCacheDirectoryNameConstant)
	}

	return ExecutionContext{
		WorkingDirectory:     projectRootPath,
		EnvironmentVariables: environmentVariables,
	}
}

func parseEnvironmentSnapshot(snapshot []string) map[string]string {
	environmentVariables := make(map[string]string, len(snapshot))
	for _, entry := range snapshot {
		separatorIndex := strings.Index(entry, "=")
		if separatorIndex <= 0 {
			continue
		}
		environmentVariables[entry[:separatorIndex]] = entry[separatorIndex+1:]
	}
	return environmentVariables
}

func venvBinaryDirectoryName() string {
	if runtime.GOOS == windowsOperatingSystemNameConstant {
		return windowsVenvBinaryDirectoryNameConstant
	}
	return posixVenvBinaryDirectoryNameConstant
}
