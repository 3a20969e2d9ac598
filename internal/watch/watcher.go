// Package watch runs a handler on workbooks that appear or change in a set
// of directories.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/klytics/sheetkit/internal/fs"
)

// Config selects what is watched.
type Config struct {
	Directories []string
	Extensions  []string
	Recursive   bool
	Debounce    time.Duration
	// Exclude lists directories whose contents are never handled, such as
	// the folder the handler writes into.
	Exclude []string
}

// Event records one handled file.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "processed" or "error"
	Error     string    `json:"error,omitempty"`
}

// Handler processes one settled file. Calls never overlap.
type Handler func(ctx context.Context, path string) error

type settled struct {
	path string
	op   string
}

// Watcher debounces file events per path and hands settled files to the
// Handler one at a time from the Start loop.
type Watcher struct {
	Config  Config
	Logger  *log.Logger
	Handler Handler

	mu       sync.Mutex
	events   []Event
	watcher  *fsnotify.Watcher
	debounce map[string]*time.Timer
	ready    chan settled
	done     chan struct{}
}

// New creates a Watcher. A zero Debounce becomes 500ms.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	exclude := make([]string, 0, len(cfg.Exclude))
	for _, dir := range cfg.Exclude {
		abs, err := filepath.Abs(dir)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("could not resolve %s: %w", dir, err)
		}
		exclude = append(exclude, abs)
	}
	cfg.Exclude = exclude

	return &Watcher{
		Config:   cfg,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
		ready:    make(chan settled, 64),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the configured directories until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.stop()

	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}
		if w.Config.Recursive {
			err = w.addRecursive(absDir)
		} else {
			err = w.watcher.Add(absDir)
		}
		if err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	w.Logger.Printf("Watching %d directory(ies) for %s", len(w.Config.Directories), strings.Join(w.Config.Extensions, " "))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Println("Stopping watcher")
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case f := <-w.ready:
			w.process(ctx, f)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Printf("Error: %v", err)
		}
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for p, t := range w.debounce {
		t.Stop()
		delete(w.debounce, p)
	}
	w.mu.Unlock()
	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if (strings.HasPrefix(d.Name(), ".") && path != dir) || w.excluded(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// excluded reports whether path is an excluded directory or lies below one.
func (w *Watcher) excluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.Config.Exclude {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	path := event.Name
	if w.excluded(path) {
		return
	}

	if event.Has(fsnotify.Create) && w.Config.Recursive {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.Logger.Printf("Error: could not watch %s: %v", path, err)
			}
			return
		}
	}

	if fs.IsTempFile(path) || !fs.MatchesExt(path, w.Config.Extensions) {
		return
	}

	op := "modify"
	if event.Has(fsnotify.Create) {
		op = "create"
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.Config.Debounce, func() {
		select {
		case w.ready <- settled{path: path, op: op}:
		case <-w.done:
		}
	})
}

func (w *Watcher) process(ctx context.Context, f settled) {
	w.mu.Lock()
	delete(w.debounce, f.path)
	w.mu.Unlock()

	if _, err := os.Stat(f.path); err != nil {
		return
	}

	evt := Event{Time: time.Now(), Path: f.path, Operation: f.op, Status: "processed"}
	if w.Handler != nil {
		if err := w.Handler(ctx, f.path); err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			w.Logger.Printf("Error processing %s: %v", f.path, err)
		} else {
			w.Logger.Printf("Processed %s", f.path)
		}
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

// Events returns the handled files so far.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}
