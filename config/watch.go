package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"galaxy-render/scene"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher re-reads a config file whenever it changes and publishes the new
// bloom parameters.
type Watcher struct {
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	updates  chan scene.BloomParams
}

// NewWatcher watches the directory holding path, so replace-on-save editors
// are seen as well as in-place writes.
func NewWatcher(logger *zap.Logger, path string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %q: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		logger:   logger,
		watcher:  w,
		path:     abs,
		debounce: debounce,
		updates:  make(chan scene.BloomParams, 1),
	}, nil
}

// Updates delivers bloom parameters after each successful reload. Only the
// latest value is kept if the reader falls behind. The channel is closed when
// the watcher stops.
func (w *Watcher) Updates() <-chan scene.BloomParams {
	return w.updates
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.updates)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain the timer

	w.logger.Info("Watching config for changes", zap.String("path", w.path))
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldReload(event) {
				w.logger.Debug("Config change detected",
					zap.String("file", event.Name),
					zap.String("op", event.Op.String()))
				debounceTimer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))

		case <-debounceTimer.C:
			w.reload()

		case <-ctx.Done():
			w.logger.Debug("Stopping config watcher")
			return
		}
	}
}

// Close stops the underlying watcher; Run returns soon after.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) shouldReload(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("Failed to reload config, keeping previous bloom settings", zap.Error(err))
		return
	}
	params := cfg.BloomParams()
	w.logger.Info("Config reloaded",
		zap.Float32("strength", params.Strength),
		zap.Float32("radius", params.Radius),
		zap.Float32("threshold", params.Threshold))

	// Replace any value the frame loop has not consumed yet.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- params
}
