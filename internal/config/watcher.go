package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher monitors the configuration file and notifies callbacks after a
// successful reload. Its main consumer swaps the server's model Mapper so
// table edits take effect without a restart.
// debounceDelay coalesces the burst of fsnotify events an editor save
// produces into one reload.
const debounceDelay = 500 * time.Millisecond

type Watcher struct {
	config      *Config
	watcher     *fsnotify.Watcher
	callbacks   []func(*Config)
	stopCh      chan struct{}
	mu          sync.RWMutex
	running     bool
	debounce    *time.Timer
	lastModTime time.Time
}

// NewWatcher creates a watcher for cfg's file.
func NewWatcher(cfg *Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		config:  cfg,
		watcher: fw,
		stopCh:  make(chan struct{}),
	}, nil
}

// AddCallback registers a function called after each successful reload.
func (w *Watcher) AddCallback(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching. Watching the directory rather than the file alone
// survives editors that replace the file by rename.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if stat, err := os.Stat(w.config.ConfigFile); err == nil {
		w.lastModTime = stat.ModTime()
	}
	if err := w.watcher.Add(filepath.Dir(w.config.ConfigFile)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	w.running = true
	go w.watchLoop()
	return nil
}

// Stop stops the watcher and cancels any reload still pending in the
// debounce window.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
	close(w.stopCh)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isConfigEvent(event) {
				continue
			}
			// Debounce rapid successive writes.
			w.mu.Lock()
			if w.running {
				if w.debounce != nil {
					w.debounce.Stop()
				}
				w.debounce = time.AfterFunc(debounceDelay, w.handleChange)
			}
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("config watcher error")

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) isConfigEvent(event fsnotify.Event) bool {
	if event.Name != w.config.ConfigFile {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) handleChange() {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()
	if !running {
		// Stop raced the timer firing.
		return
	}

	stat, err := os.Stat(w.config.ConfigFile)
	if err != nil {
		return
	}
	if !stat.ModTime().After(w.lastModTime) {
		return
	}
	w.lastModTime = stat.ModTime()

	if err := w.config.Reload(); err != nil {
		logrus.WithError(err).Error("failed to reload configuration")
		return
	}

	w.mu.RLock()
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, callback := range callbacks {
		callback(w.config)
	}
	logrus.Info("configuration reloaded")
}
