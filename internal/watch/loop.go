package watch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultDebounceDuration is the quiet period applied when the caller
	// does not configure one.
	DefaultDebounceDuration = 500 * time.Millisecond

	eventSourceNotConfiguredMessageConstant = "watch event source not configured"
	executeCallbackNotConfiguredMessage     = "watch execute callback not configured"
	loopLoggerNotConfiguredMessageConstant  = "watch loop logger not configured"
	changeDetectedLogMessageConstant        = "change detected"
	runStartedLogMessageConstant            = "watch run started"
	runFinishedLogMessageConstant           = "watch run finished"
	rerunQueuedLogMessageConstant           = "rerun queued behind active run"
	loopStoppedLogMessageConstant           = "watch loop stopped"
	changedPathLogFieldNameConstant         = "path"
	changeTypeLogFieldNameConstant          = "change_type"
)

// Loop construction sentinels.
var (
	ErrEventSourceNotConfigured = errors.New(eventSourceNotConfiguredMessageConstant)
	ErrExecuteNotConfigured     = errors.New(executeCallbackNotConfiguredMessage)
	ErrLoopLoggerNotConfigured  = errors.New(loopLoggerNotConfiguredMessageConstant)
)

// loopState tracks where the loop is between events and runs.
type loopState int

const (
	loopStateIdle loopState = iota
	loopStatePendingDebounce
	loopStateRunning
	loopStateCancelled
)

// PathFilter decides whether a changed path should trigger re-execution.
type PathFilter interface {
	ShouldIgnore(changedPath string) bool
}

// ExecuteCallback performs one task run. The context is cancelled when the
// loop shuts down, which reaches any in-flight child process.
type ExecuteCallback func(executionContext context.Context)

// Loop serializes watch events, debouncing, and task runs through a single
// goroutine so runs never overlap.
type Loop struct {
	eventSource      EventSource
	pathFilter       PathFilter
	watchPaths       []string
	debounceDuration time.Duration
	execute          ExecuteCallback
	logger           *zap.Logger
}

// NewLoop validates collaborators and constructs a Loop. A nil filter
// disables ignore filtering; a non-positive debounce falls back to the
// default quiet period.
func NewLoop(eventSource EventSource, pathFilter PathFilter, watchPaths []string, debounceDuration time.Duration, execute ExecuteCallback, logger *zap.Logger) (*Loop, error) {
	if eventSource == nil {
		return nil, ErrEventSourceNotConfigured
	}
	if execute == nil {
		return nil, ErrExecuteNotConfigured
	}
	if logger == nil {
		return nil, ErrLoopLoggerNotConfigured
	}
	if debounceDuration <= 0 {
		debounceDuration = DefaultDebounceDuration
	}
	return &Loop{
		eventSource:      eventSource,
		pathFilter:       pathFilter,
		watchPaths:       watchPaths,
		debounceDuration: debounceDuration,
		execute:          execute,
		logger:           logger,
	}, nil
}

// Run executes the task once, then blocks watching for changes until the
// context is cancelled. Each burst of qualifying events produces exactly one
// run; events arriving during a run queue exactly one follow-up.
func (loop *Loop) Run(executionContext context.Context) error {
	loop.execute(executionContext)

	changeEvents, subscribeError := loop.eventSource.Subscribe(loop.watchPaths)
	if subscribeError != nil {
		return subscribeError
	}
	defer func() { _ = loop.eventSource.Close() }()

	state := loopStateIdle
	pendingRerun := false

	debounceTimer := time.NewTimer(loop.debounceDuration)
	stopTimer(debounceTimer)
	defer stopTimer(debounceTimer)

	runFinished := make(chan struct{}, 1)
	var cancelActiveRun context.CancelFunc

	startRun := func() {
		runContext, cancelFunction := context.WithCancel(executionContext)
		cancelActiveRun = cancelFunction
		state = loopStateRunning
		loop.logger.Info(runStartedLogMessageConstant)
		go func() {
			defer func() { runFinished <- struct{}{} }()
			loop.execute(runContext)
		}()
	}

	for {
		select {
		case <-executionContext.Done():
			state = loopStateCancelled
			if cancelActiveRun != nil {
				cancelActiveRun()
				<-runFinished
			}
			loop.logger.Info(loopStoppedLogMessageConstant)
			return nil

		case changeEvent, channelOpen := <-changeEvents:
			if !channelOpen {
				return nil
			}
			if loop.pathFilter != nil && loop.pathFilter.ShouldIgnore(changeEvent.Path) {
				continue
			}
			loop.logger.Info(changeDetectedLogMessageConstant,
				zap.String(changedPathLogFieldNameConstant, changeEvent.Path),
				zap.String(changeTypeLogFieldNameConstant, string(changeEvent.Type)),
			)
			switch state {
			case loopStateIdle:
				state = loopStatePendingDebounce
				debounceTimer.Reset(loop.debounceDuration)
			case loopStatePendingDebounce:
				stopTimer(debounceTimer)
				debounceTimer.Reset(loop.debounceDuration)
			case loopStateRunning:
				if !pendingRerun {
					pendingRerun = true
					loop.logger.Info(rerunQueuedLogMessageConstant)
				}
			}

		case <-debounceTimer.C:
			if state == loopStatePendingDebounce {
				startRun()
			}

		case <-runFinished:
			cancelActiveRun()
			cancelActiveRun = nil
			loop.logger.Info(runFinishedLogMessageConstant)
			if pendingRerun {
				pendingRerun = false
				state = loopStatePendingDebounce
				debounceTimer.Reset(loop.debounceDuration)
			} else {
				state = loopStateIdle
			}
		}
	}
}

func stopTimer(debounceTimer *time.Timer) {
	if !debounceTimer.Stop() {
		select {
		case <-debounceTimer.C:
		default:
		}
	}
}
