package mockbridge

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/TestFlowLabs/bridge/pkg/logging"
)

// Watcher is a Source that caches the fakes file and reloads it when the
// file changes. Without fsnotify support it reads the file on every call.
type Watcher struct {
	bridge *Bridge

	mu        sync.RWMutex
	rules     *RuleSet
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	done      chan struct{}
	running   bool

	// OnChange, when set before Start, is called after every reload.
	OnChange func(*RuleSet)
}

// NewWatcher creates a watcher for bridge's file.
func NewWatcher(bridge *Bridge) *Watcher {
	return &Watcher{bridge: bridge, rules: NewRuleSet()}
}

// Start loads the file and begins watching its directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.running = true
	w.rules = w.bridge.GetFakes()

	dir := filepath.Dir(w.bridge.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Warn(subsystem, "Cannot create %s, reading fakes on every request: %v", dir, err)
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn(subsystem, "fsnotify not available, reading fakes on every request: %v", err)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		logging.Warn(subsystem, "Failed to watch %s, reading fakes on every request: %v", dir, err)
		watcher.Close()
		return nil
	}

	w.fsWatcher = watcher
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})

	// Capture channels before releasing lock to avoid races with Stop
	go w.processEvents(watcher.Events, watcher.Errors, w.stopCh, w.done)

	logging.Info(subsystem, "Watching %s for fake changes", w.bridge.Path())
	return nil
}

// Rules implements Source.
func (w *Watcher) Rules() *RuleSet {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.fsWatcher == nil {
		return w.bridge.GetFakes()
	}
	return w.rules
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	fsWatcher, stopCh, done := w.fsWatcher, w.stopCh, w.done
	w.fsWatcher = nil
	w.mu.Unlock()

	if fsWatcher == nil {
		return nil
	}
	close(stopCh)
	err := fsWatcher.Close()
	<-done
	return err
}

func (w *Watcher) processEvents(events <-chan fsnotify.Event, errs <-chan error, stopCh, done chan struct{}) {
	defer close(done)
	name := filepath.Base(w.bridge.Path())

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()

		case err, ok := <-errs:
			if !ok {
				return
			}
			logging.Error(subsystem, err, "fsnotify error")
		}
	}
}

func (w *Watcher) reload() {
	rules := w.bridge.GetFakes()

	w.mu.Lock()
	w.rules = rules
	callback := w.OnChange
	w.mu.Unlock()

	logging.Debug(subsystem, "Reloaded %d fake(s)", rules.Len())
	if callback != nil {
		callback(rules)
	}
}
