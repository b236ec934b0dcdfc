package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/promgr/internal/utils"
)

const (
	testConfigurationFilePathConstant = "/tmp/promgr/config.yaml"
	testContextLogLevelConstant       = "debug"
	testDebounceMillisecondsConstant  = 750
)

func TestCommandContextAccessorRoundTrip(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	baseContext := context.Background()
	decoratedContext := accessor.WithConfigurationFilePath(baseContext, testConfigurationFilePathConstant)
	decoratedContext = accessor.WithLogLevel(decoratedContext, testContextLogLevelConstant)
	decoratedContext = accessor.WithExecutionFlags(decoratedContext, utils.ExecutionFlags{
		Force:                true,
		ForceSet:             true,
		DebounceMilliseconds: testDebounceMillisecondsConstant,
		DebounceSet:          true,
	})

	configurationFilePath, configurationFilePathAvailable := accessor.ConfigurationFilePath(decoratedContext)
	require.True(testInstance, configurationFilePathAvailable)
	require.Equal(testInstance, testConfigurationFilePathConstant, configurationFilePath)

	logLevel, logLevelAvailable := accessor.LogLevel(decoratedContext)
	require.True(testInstance, logLevelAvailable)
	require.Equal(testInstance, testContextLogLevelConstant, logLevel)

	executionFlags, executionFlagsAvailable := accessor.ExecutionFlags(decoratedContext)
	require.True(testInstance, executionFlagsAvailable)
	require.True(testInstance, executionFlags.Force)
	require.True(testInstance, executionFlags.ForceSet)
	require.Equal(testInstance, testDebounceMillisecondsConstant, executionFlags.DebounceMilliseconds)
	require.True(testInstance, executionFlags.DebounceSet)
}

func TestCommandContextAccessorMissingValues(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, configurationFilePathAvailable := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, configurationFilePathAvailable)

	_, executionFlagsAvailable := accessor.ExecutionFlags(context.Background())
	require.False(testInstance, executionFlagsAvailable)

	_, logLevelAvailable := accessor.LogLevel(context.Background())
	require.False(testInstance, logLevelAvailable)
}

func TestCommandContextAccessorBlankLogLevelIgnored(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	decoratedContext := accessor.WithLogLevel(context.Background(), "   ")
	_, logLevelAvailable := accessor.LogLevel(decoratedContext)
	require.False(testInstance, logLevelAvailable)
}
