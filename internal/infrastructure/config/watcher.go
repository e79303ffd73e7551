package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
)

// Watcher manages configuration file watching with hot reload.
// Besides the main config file it can watch extra files, such as the
// contact point provisioning file, and reload when they change.
type Watcher struct {
	viper          *viper.Viper
	configManager  *ConfigManager
	logger         logger.Logger
	debounceTimer  *time.Timer
	debounceMu     sync.Mutex
	debouncePeriod time.Duration

	files   *fsnotify.Watcher
	watched map[string]bool
	done    chan struct{}
}

// NewWatcher creates a new configuration file watcher.
func NewWatcher(v *viper.Viper, cm *ConfigManager, log logger.Logger) *Watcher {
	return &Watcher{
		viper:          v,
		configManager:  cm,
		logger:         log,
		debouncePeriod: 100 * time.Millisecond,
		watched:        make(map[string]bool),
	}
}

// Start begins watching the configuration file for changes.
func (w *Watcher) Start() {
	w.viper.OnConfigChange(w.onConfigChange)
	w.viper.WatchConfig()
	w.logger.Info("config watcher started",
		"watch_path", w.viper.ConfigFileUsed(),
	)
}

// WatchFile reloads the configuration when path changes.
// The parent directory is watched so editors that replace files are handled.
func (w *Watcher) WatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.files == nil {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating file watcher: %w", err)
		}
		w.files = fw
		w.done = make(chan struct{})
		go w.loop(fw, w.done)
	}

	if err := w.files.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	w.watched[abs] = true

	w.logger.Info("watching file for changes", "watch_path", abs)
	return nil
}

// Stop releases the extra file watcher.
func (w *Watcher) Stop() error {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	if w.files == nil {
		return nil
	}
	close(w.done)
	err := w.files.Close()
	w.files = nil
	return err
}

func (w *Watcher) loop(fw *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case e, ok := <-fw.Events:
			if !ok {
				return
			}
			w.debounceMu.Lock()
			watched := w.watched[filepath.Clean(e.Name)]
			w.debounceMu.Unlock()
			if watched && e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.onConfigChange(e)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// onConfigChange handles configuration file change events with debouncing.
func (w *Watcher) onConfigChange(e fsnotify.Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	// Stop existing timer if any
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	// Check if file was deleted
	if e.Op&fsnotify.Remove == fsnotify.Remove {
		w.logger.Error("config file removed",
			"file", e.Name,
			"preserved_config", true,
		)
		return
	}

	// Start new debounce timer
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		// Failures are logged by TryReload and the previous config is kept.
		_ = w.configManager.TryReload()
	})
}
