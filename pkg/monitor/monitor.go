// Package monitor watches the configuration file so selected settings can be
// applied without restarting the server.
package monitor

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"seo-analytics-mcp/pkg/logging"
)

// DefaultDebounceDelay coalesces the burst of events editors emit on save
const DefaultDebounceDelay = 500 * time.Millisecond

// FileEvent describes a change to the watched file
type FileEvent struct {
	Type string // create, modify or delete
	Path string
}

// ConfigMonitor watches a single file through its parent directory, which
// also catches editors that save by rename-and-replace
type ConfigMonitor struct {
	watcher       *fsnotify.Watcher
	path          string
	debounceDelay time.Duration
	logger        *logging.StructuredLogger

	mu        sync.Mutex
	callbacks []func(FileEvent)
	timer     *time.Timer
	closed    bool
	done      chan struct{}
}

// NewConfigMonitor creates a monitor for path
func NewConfigMonitor(path string, logger *logging.StructuredLogger) (*ConfigMonitor, error) {
	if path == "" {
		return nil, fmt.Errorf("config monitor requires a file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &ConfigMonitor{
		watcher:       watcher,
		path:          abs,
		debounceDelay: DefaultDebounceDelay,
		logger:        logger.WithContext("watched_file", abs),
		done:          make(chan struct{}),
	}, nil
}

// SetDebounceDelay changes the debounce window; call before Start
func (cm *ConfigMonitor) SetDebounceDelay(d time.Duration) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.debounceDelay = d
}

// OnChange registers a callback invoked after each debounced change
func (cm *ConfigMonitor) OnChange(callback func(FileEvent)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, callback)
}

// Start begins watching
func (cm *ConfigMonitor) Start() error {
	dir := filepath.Dir(cm.path)
	if err := cm.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	go cm.monitorEvents()

	cm.logger.Info("Started monitoring configuration file")
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (cm *ConfigMonitor) Stop() error {
	cm.mu.Lock()
	if cm.closed {
		cm.mu.Unlock()
		return nil
	}
	cm.closed = true
	if cm.timer != nil {
		cm.timer.Stop()
	}
	close(cm.done)
	cm.mu.Unlock()

	return cm.watcher.Close()
}

// monitorEvents processes file system events with debouncing
func (cm *ConfigMonitor) monitorEvents() {
	for {
		select {
		case <-cm.done:
			return

		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cm.path {
				continue
			}
			cm.schedule(event)

		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.WithError(err).Warn("File watcher error")
		}
	}
}

// schedule restarts the debounce timer so only the last event of a burst fires
func (cm *ConfigMonitor) schedule(event fsnotify.Event) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closed {
		return
	}
	if cm.timer != nil {
		cm.timer.Stop()
	}
	cm.timer = time.AfterFunc(cm.debounceDelay, func() {
		cm.processEvent(event)
	})
}

// processEvent converts an fsnotify event and calls the callbacks
func (cm *ConfigMonitor) processEvent(event fsnotify.Event) {
	var eventType string
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = "create"
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = "modify"
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = "delete"
	default:
		return
	}

	cm.mu.Lock()
	if cm.closed {
		cm.mu.Unlock()
		return
	}
	callbacks := append([]func(FileEvent){}, cm.callbacks...)
	cm.mu.Unlock()

	fileEvent := FileEvent{Type: eventType, Path: event.Name}
	for _, callback := range callbacks {
		callback(fileEvent)
	}

	cm.logger.WithContext("event_type", eventType).Debug("Configuration file event")
}
