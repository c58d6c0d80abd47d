package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the project configuration when .fusemcp.yaml (or
// .yml) changes and hands the validated result to a callback. A change
// that fails to load or validate is logged and dropped; the previous
// configuration stays in effect.
type Watcher struct {
	dir      string
	onChange func(*Config)
	logger   *slog.Logger
	debounce time.Duration

	fsw      *fsnotify.Watcher
	stopOnce sync.Once
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchLogger sets the structured logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the reload debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a config watcher for the given project directory.
// onChange is invoked with each successfully reloaded configuration.
func NewWatcher(dir string, onChange func(*Config), opts ...WatcherOption) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}

	w := &Watcher{
		dir:      dir,
		onChange: onChange,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It returns once the watch is established; the
// reload loop runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	// watch the directory, not the file: editors replace config files
	// by rename, which breaks per-file watches
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.fsw = fsw

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", "error", err)
		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.dir)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous configuration", "error", err)
		return
	}
	w.logger.Info("configuration reloaded", "dir", w.dir)
	w.onChange(cfg)
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsw != nil {
			err = w.fsw.Close()
		}
	})
	return err
}

func isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == ".fusemcp.yaml" || base == ".fusemcp.yml"
}
