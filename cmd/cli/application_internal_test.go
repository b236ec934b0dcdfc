package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	searchPathEnvironmentVariableTestConstant = "PROMGR_CONFIG_SEARCH_PATH"
	logLevelEnvironmentVariableTestConstant   = "PROMGR_COMMON_LOG_LEVEL"
	initializationCommandUseTestConstant      = "run"
	configurationFileNameTestConstant         = "config.yaml"
	configurationFileContentTestConstant      = "common:\n  log_level: debug\n  log_format: structured\n  debounce_milliseconds: 750\n  registry_path: /tmp/promgr-registry.yaml\n"
	defaultLogLevelTestConstant               = "info"
	defaultLogFormatTestConstant              = "console"
	defaultDebounceTestConstant               = 500
	unsupportedLogLevelTestConstant           = "verbose"
)

func TestNewApplicationRegistersCommands(testInstance *testing.T) {
	testInstance.Setenv(searchPathEnvironmentVariableTestConstant, testInstance.TempDir())

	application := NewApplication()
	require.NotNil(testInstance, application.rootCommand)

	registeredCommandNames := map[string]bool{}
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredCommandNames[registeredCommand.Name()] = true
	}

	expectedCommandNames := []string{"run", "watch", "project", "snippet", "new", "dashboard", "version"}
	for _, expectedCommandName := range expectedCommandNames {
		require.True(testInstance, registeredCommandNames[expectedCommandName], expectedCommandName)
	}
}

func TestInitializeConfigurationDefaults(testInstance *testing.T) {
	testInstance.Setenv(searchPathEnvironmentVariableTestConstant, testInstance.TempDir())

	application := NewApplication()
	require.NoError(testInstance, application.InitializeForCommand(initializationCommandUseTestConstant))

	require.Equal(testInstance, defaultLogLevelTestConstant, application.configuration.Common.LogLevel)
	require.Equal(testInstance, defaultLogFormatTestConstant, application.configuration.Common.LogFormat)
	require.Equal(testInstance, defaultDebounceTestConstant, application.configuration.Common.DebounceMilliseconds)
	require.Empty(testInstance, application.ConfigFileUsed())
}

func TestInitializeConfigurationReadsConfigurationFile(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, configurationFileNameTestConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationFileContentTestConstant), 0o644))
	testInstance.Setenv(searchPathEnvironmentVariableTestConstant, configurationDirectory)

	application := NewApplication()
	require.NoError(testInstance, application.InitializeForCommand(initializationCommandUseTestConstant))

	require.Equal(testInstance, "debug", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", application.configuration.Common.LogFormat)
	require.Equal(testInstance, 750, application.configuration.Common.DebounceMilliseconds)
	require.Equal(testInstance, "/tmp/promgr-registry.yaml", application.configuration.Common.RegistryPath)
	require.Equal(testInstance, configurationFilePath, application.ConfigFileUsed())
}

func TestInitializeConfigurationHonorsEnvironmentOverride(testInstance *testing.T) {
	testInstance.Setenv(searchPathEnvironmentVariableTestConstant, testInstance.TempDir())
	testInstance.Setenv(logLevelEnvironmentVariableTestConstant, "warn")

	application := NewApplication()
	require.NoError(testInstance, application.InitializeForCommand(initializationCommandUseTestConstant))

	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
}

func TestInitializeConfigurationRejectsUnsupportedLogLevel(testInstance *testing.T) {
	testInstance.Setenv(searchPathEnvironmentVariableTestConstant, testInstance.TempDir())
	testInstance.Setenv(logLevelEnvironmentVariableTestConstant, unsupportedLogLevelTestConstant)

	application := NewApplication()
	require.Error(testInstance, application.InitializeForCommand(initializationCommandUseTestConstant))
}

func TestRegistryFilePathPrefersConfiguredPath(testInstance *testing.T) {
	testInstance.Setenv(searchPathEnvironmentVariableTestConstant, testInstance.TempDir())

	application := NewApplication()
	application.configuration.Common.RegistryPath = "/srv/promgr/registry.yaml"

	resolvedPath, pathError := application.registryFilePath()
	require.NoError(testInstance, pathError)
	require.Equal(testInstance, "/srv/promgr/registry.yaml", resolvedPath)

	homePath, homeError := application.promgrHomePath()
	require.NoError(testInstance, homeError)
	require.Equal(testInstance, "/srv/promgr", homePath)
}
