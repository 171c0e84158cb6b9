// Package watch re-runs a callback when watched input files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/vsinha/repairkpi/pkg/infrastructure/logging"
)

// DefaultDebounce collapses the burst of events a single save produces
const DefaultDebounce = 300 * time.Millisecond

// Watcher monitors a set of files and calls OnChange once per burst of writes.
// Parent directories are watched so editors that replace files on save are seen.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	onChange func(ctx context.Context, path string) error
	logger   *logrus.Logger
}

// New creates a watcher for files. A non-positive debounce uses DefaultDebounce.
func New(files []string, debounce time.Duration, onChange func(ctx context.Context, path string) error, logger *logrus.Logger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback cannot be nil")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		debounce: debounce,
		onChange: onChange,
		logger:   logging.OrDiscard(logger),
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		w.files[abs] = true
	}
	return w, nil
}

// Run blocks until ctx is cancelled, calling OnChange after each debounced
// change. Callback errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dirs := make(map[string]bool)
	for f := range w.files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := ""

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(evt.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			pending = abs
			timer.Reset(w.debounce)
		case <-timer.C:
			if pending == "" {
				continue
			}
			path := pending
			pending = ""
			w.logger.WithField("file", path).Info("input changed")
			if err := w.onChange(ctx, path); err != nil {
				logging.LogError(w.logger, "watch", "Run", "rerun after change", path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watcher error")
		}
	}
}
