package watch_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/promgr/internal/watch"
)

const (
	testDebounceDurationConstant   = 100 * time.Millisecond
	testEventSpacingConstant       = 30 * time.Millisecond
	testSettleDurationConstant     = 400 * time.Millisecond
	testEventuallyTimeoutConstant  = 3 * time.Second
	testEventuallyIntervalConstant = 10 * time.Millisecond
	testChangedFilePathConstant    = "src/module.py"
	testIgnoredFilePathConstant    = "__pycache__/module.cpython-312.pyc"
)

type syntheticEventSource struct {
	events          chan watch.ChangeEvent
	subscribeError  error
	subscribeCount  atomic.Int64
	closeCount      atomic.Int64
	recordedPaths   []string
}

func newSyntheticEventSource() *syntheticEventSource {
	return &syntheticEventSource{events: make(chan watch.ChangeEvent, 16)}
}

func (source *syntheticEventSource) Subscribe(watchPaths []string) (<-chan watch.ChangeEvent, error) {
	source.subscribeCount.Add(1)
	source.recordedPaths = watchPaths
	if source.subscribeError != nil {
		return nil, source.subscribeError
	}
	return source.events, nil
}

func (source *syntheticEventSource) Close() error {
	source.closeCount.Add(1)
	return nil
}

func (source *syntheticEventSource) emit(changedPath string) {
	source.events <- watch.ChangeEvent{Path: changedPath, Type: watch.ChangeTypeModified}
}

type ignoreEverythingFilter struct{}

func (ignoreEverythingFilter) ShouldIgnore(changedPath string) bool { return true }

func startLoop(testInstance *testing.T, loop *watch.Loop) (context.CancelFunc, chan error) {
	loopContext, cancelFunction := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopContext) }()
	testInstance.Cleanup(func() {
		cancelFunction()
		select {
		case <-loopDone:
		case <-time.After(testEventuallyTimeoutConstant):
		}
	})
	return cancelFunction, loopDone
}

func TestNewLoopValidatesCollaborators(testInstance *testing.T) {
	noopExecute := func(executionContext context.Context) {}

	_, missingSourceError := watch.NewLoop(nil, nil, nil, 0, noopExecute, zap.NewNop())
	require.ErrorIs(testInstance, missingSourceError, watch.ErrEventSourceNotConfigured)

	_, missingExecuteError := watch.NewLoop(newSyntheticEventSource(), nil, nil, 0, nil, zap.NewNop())
	require.ErrorIs(testInstance, missingExecuteError, watch.ErrExecuteNotConfigured)

	_, missingLoggerError := watch.NewLoop(newSyntheticEventSource(), nil, nil, 0, noopExecute, nil)
	require.ErrorIs(testInstance, missingLoggerError, watch.ErrLoopLoggerNotConfigured)
}

func TestLoopRunsOnceBeforeWatching(testInstance *testing.T) {
	eventSource := newSyntheticEventSource()
	var executionCount atomic.Int64
	var subscribedBeforeFirstRun atomic.Bool

	loop, creationError := watch.NewLoop(eventSource, nil, []string{"src"}, testDebounceDurationConstant, func(executionContext context.Context) {
		if executionCount.Add(1) == 1 {
			subscribedBeforeFirstRun.Store(eventSource.subscribeCount.Load() > 0)
		}
	}, zap.NewNop())
	require.NoError(testInstance, creationError)

	cancelFunction, loopDone := startLoop(testInstance, loop)

	require.Eventually(testInstance, func() bool { return executionCount.Load() == 1 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)
	require.False(testInstance, subscribedBeforeFirstRun.Load())

	cancelFunction()
	require.NoError(testInstance, <-loopDone)
	require.Equal(testInstance, int64(1), eventSource.closeCount.Load())
}

func TestLoopCoalescesEventBurstIntoOneRun(testInstance *testing.T) {
	eventSource := newSyntheticEventSource()
	var executionCount atomic.Int64

	loop, creationError := watch.NewLoop(eventSource, nil, []string{"src"}, testDebounceDurationConstant, func(executionContext context.Context) {
		executionCount.Add(1)
	}, zap.NewNop())
	require.NoError(testInstance, creationError)

	startLoop(testInstance, loop)
	require.Eventually(testInstance, func() bool { return executionCount.Load() == 1 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)

	for eventIndex := 0; eventIndex < 3; eventIndex++ {
		eventSource.emit(testChangedFilePathConstant)
		time.Sleep(testEventSpacingConstant)
	}

	require.Eventually(testInstance, func() bool { return executionCount.Load() == 2 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)
	time.Sleep(testSettleDurationConstant)
	require.Equal(testInstance, int64(2), executionCount.Load())
}

func TestLoopQueuesExactlyOneRerunDuringActiveRun(testInstance *testing.T) {
	eventSource := newSyntheticEventSource()
	var executionCount atomic.Int64
	releaseSecondRun := make(chan struct{})

	loop, creationError := watch.NewLoop(eventSource, nil, []string{"src"}, testDebounceDurationConstant, func(executionContext context.Context) {
		if executionCount.Add(1) == 2 {
			<-releaseSecondRun
		}
	}, zap.NewNop())
	require.NoError(testInstance, creationError)

	startLoop(testInstance, loop)
	require.Eventually(testInstance, func() bool { return executionCount.Load() == 1 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)

	eventSource.emit(testChangedFilePathConstant)
	require.Eventually(testInstance, func() bool { return executionCount.Load() == 2 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)

	eventSource.emit(testChangedFilePathConstant)
	eventSource.emit(testChangedFilePathConstant)
	eventSource.emit(testChangedFilePathConstant)
	close(releaseSecondRun)

	require.Eventually(testInstance, func() bool { return executionCount.Load() == 3 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)
	time.Sleep(testSettleDurationConstant)
	require.Equal(testInstance, int64(3), executionCount.Load())
}

func TestLoopSkipsIgnoredEvents(testInstance *testing.T) {
	eventSource := newSyntheticEventSource()
	var executionCount atomic.Int64

	loop, creationError := watch.NewLoop(eventSource, ignoreEverythingFilter{}, []string{"src"}, testDebounceDurationConstant, func(executionContext context.Context) {
		executionCount.Add(1)
	}, zap.NewNop())
	require.NoError(testInstance, creationError)

	startLoop(testInstance, loop)
	require.Eventually(testInstance, func() bool { return executionCount.Load() == 1 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)

	eventSource.emit(testIgnoredFilePathConstant)
	eventSource.emit(testIgnoredFilePathConstant)
	time.Sleep(testSettleDurationConstant)
	require.Equal(testInstance, int64(1), executionCount.Load())
}

func TestLoopReturnsSubscriptionError(testInstance *testing.T) {
	eventSource := newSyntheticEventSource()
	eventSource.subscribeError = watch.WatchSubscriptionError{Cause: watch.ErrNoWatchPaths}

	loop, creationError := watch.NewLoop(eventSource, nil, nil, testDebounceDurationConstant, func(executionContext context.Context) {}, zap.NewNop())
	require.NoError(testInstance, creationError)

	runError := loop.Run(context.Background())
	var subscriptionError watch.WatchSubscriptionError
	require.ErrorAs(testInstance, runError, &subscriptionError)
	require.ErrorIs(testInstance, runError, watch.ErrNoWatchPaths)
}

func TestLoopCancelsInFlightRunOnShutdown(testInstance *testing.T) {
	eventSource := newSyntheticEventSource()
	var executionCount atomic.Int64
	runObservedCancellation := make(chan struct{}, 1)

	loop, creationError := watch.NewLoop(eventSource, nil, []string{"src"}, testDebounceDurationConstant, func(executionContext context.Context) {
		if executionCount.Add(1) == 2 {
			<-executionContext.Done()
			runObservedCancellation <- struct{}{}
		}
	}, zap.NewNop())
	require.NoError(testInstance, creationError)

	cancelFunction, loopDone := startLoop(testInstance, loop)
	require.Eventually(testInstance, func() bool { return executionCount.Load() == 1 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)

	eventSource.emit(testChangedFilePathConstant)
	require.Eventually(testInstance, func() bool { return executionCount.Load() == 2 }, testEventuallyTimeoutConstant, testEventuallyIntervalConstant)

	cancelFunction()
	select {
	case <-runObservedCancellation:
	case <-time.After(testEventuallyTimeoutConstant):
		testInstance.Fatal("in-flight run never observed cancellation")
	}
	require.NoError(testInstance, <-loopDone)
}
