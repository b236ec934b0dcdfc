// Package watch re-runs tasks when watched project files change.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const (
	subscriptionFailureTemplateConstant = "watch subscription failed: %s"
	eventChannelCapacityConstant        = 64
	noWatchPathsMessageConstant         = "no watch paths provided"
)

// ErrNoWatchPaths indicates a subscription without any paths.
var ErrNoWatchPaths = errors.New(noWatchPathsMessageConstant)

// ChangeType classifies filesystem changes.
type ChangeType string

// Change classifications surfaced to the loop.
const (
	ChangeTypeCreated  ChangeType = "created"
	ChangeTypeModified ChangeType = "modified"
	ChangeTypeRemoved  ChangeType = "removed"
	ChangeTypeRenamed  ChangeType = "renamed"
)

// ChangeEvent is one observed filesystem change.
type ChangeEvent struct {
	Path string
	Type ChangeType
}

// WatchSubscriptionError wraps failures while establishing a watch.
type WatchSubscriptionError struct {
	Cause error
}

// Error describes the subscription failure.
func (subscriptionError WatchSubscriptionError) Error() string {
	return fmt.Sprintf(subscriptionFailureTemplateConstant, subscriptionError.Cause)
}

// Unwrap exposes the underlying error.
func (subscriptionError WatchSubscriptionError) Unwrap() error {
	return subscriptionError.Cause
}

// EventSource delivers filesystem change events for a set of root paths.
type EventSource interface {
	Subscribe(watchPaths []string) (<-chan ChangeEvent, error)
	Close() error
}

// FileSystemEventSource watches directories recursively through fsnotify and
// starts watching directories created while the subscription is live.
type FileSystemEventSource struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileSystemEventSource constructs an unsubscribed event source.
func NewFileSystemEventSource() (*FileSystemEventSource, error) {
	watcher, watcherError := fsnotify.NewWatcher()
	if watcherError != nil {
		return nil, WatchSubscriptionError{Cause: watcherError}
	}
	return &FileSystemEventSource{watcher: watcher, done: make(chan struct{})}, nil
}

// Subscribe registers every path recursively and starts event translation.
func (source *FileSystemEventSource) Subscribe(watchPaths []string) (<-chan ChangeEvent, error) {
	if len(watchPaths) == 0 {
		return nil, WatchSubscriptionError{Cause: ErrNoWatchPaths}
	}

	for _, watchPath := range watchPaths {
		if registrationError := source.watchRecursively(watchPath); registrationError != nil {
			return nil, WatchSubscriptionError{Cause: registrationError}
		}
	}

	changeEvents := make(chan ChangeEvent, eventChannelCapacityConstant)
	go source.translateEvents(changeEvents)
	return changeEvents, nil
}

// Close tears down the underlying watcher and stops event translation.
func (source *FileSystemEventSource) Close() error {
	close(source.done)
	return source.watcher.Close()
}

func (source *FileSystemEventSource) watchRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(entryPath string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if !entry.IsDir() {
			return nil
		}
		return source.watcher.Add(entryPath)
	})
}

func (source *FileSystemEventSource) translateEvents(changeEvents chan<- ChangeEvent) {
	defer close(changeEvents)
	for {
		select {
		case <-source.done:
			return
		case notification, channelOpen := <-source.watcher.Events:
			if !channelOpen {
				return
			}
			if notification.Op.Has(fsnotify.Create) {
				if entryInfo, statError := os.Stat(notification.Name); statError == nil && entryInfo.IsDir() {
					_ = source.watchRecursively(notification.Name)
				}
			}
			changeEvent := ChangeEvent{Path: notification.Name, Type: classifyOperation(notification.Op)}
			select {
			case changeEvents <- changeEvent:
			case <-source.done:
				return
			}
		case _, channelOpen := <-source.watcher.Errors:
			if !channelOpen {
				return
			}
		}
	}
}

func classifyOperation(operation fsnotify.Op) ChangeType {
	switch {
	case operation.Has(fsnotify.Create):
		return ChangeTypeCreated
	case operation.Has(fsnotify.Remove):
		return ChangeTypeRemoved
	case operation.Has(fsnotify.Rename):
		return ChangeTypeRenamed
	default:
		return ChangeTypeModified
	}
}
