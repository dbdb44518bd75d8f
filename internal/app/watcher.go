package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a route file for changes made outside the
// application and triggers a callback once the writes settle. The parent
// directory is watched so editors that save by rename are seen too.
type FileWatcher struct {
	path     string
	debounce time.Duration
	onChange func() // Called from a background goroutine

	mu       sync.Mutex
	baseline time.Time
	timer    *time.Timer
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewFileWatcher creates a watcher for path. debounce is how long the file
// must stay quiet before onChange runs.
func NewFileWatcher(path string, debounce time.Duration, onChange func()) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	w := &FileWatcher{path: abs, debounce: debounce, onChange: onChange}
	w.ResetBaseline()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Start begins watching in a background goroutine.
func (w *FileWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	w.mu.Lock()
	w.watcher = fw
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go w.loop(fw, done)
	return nil
}

// Stop stops the watcher and any pending callback.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	fw, done := w.watcher, w.done
	w.watcher, w.done = nil, nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if fw != nil {
		fw.Close()
		<-done
	}
}

// ResetBaseline records the file's current modification time. Call it after
// the application saves the file so its own write is not reported.
func (w *FileWatcher) ResetBaseline() {
	info, err := os.Stat(w.path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.baseline = time.Time{}
		return
	}
	w.baseline = info.ModTime()
}

func (w *FileWatcher) loop(fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("route file watcher", "path", w.path, "error", err)
		}
	}
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *FileWatcher) fire() {
	if !w.changed() {
		return
	}
	w.ResetBaseline()
	if w.onChange != nil {
		w.onChange()
	}
}

// changed reports whether the file was modified since the baseline.
func (w *FileWatcher) changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return info.ModTime().After(w.baseline)
}
