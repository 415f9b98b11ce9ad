// Package watch reports saved MQL sources below a directory tree.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultPattern matches MQL programs and headers at any depth.
const DefaultPattern = "**/*.{mq4,mq5,mqh}"

// Event is a settled change of one file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Options configure a Watcher.
type Options struct {
	// Patterns are lowercase doublestar globs matched against the lowercased
	// path relative to the root; empty means DefaultPattern.
	Patterns []string
	// Debounce coalesces bursts of writes to one event per file.
	Debounce time.Duration
	// Logf receives watcher errors; nil discards them.
	Logf func(format string, args ...any)
}

// Watcher monitors a directory tree with OS-level notifications.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	patterns []string
	debounce time.Duration
	logf     func(string, ...any)
	Events   chan Event

	mu       sync.Mutex
	pending  map[string]*time.Timer
	inflight sync.WaitGroup
}

// New watches root and every non-hidden directory below it.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p}
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	w := &Watcher{
		fsw:      fsw,
		root:     abs,
		patterns: patterns,
		debounce: opts.Debounce,
		logf:     logf,
		Events:   make(chan Event, 64),
		pending:  make(map[string]*time.Timer),
	}
	if err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// PatternError reports an invalid glob.
type PatternError struct{ Pattern string }

func (e *PatternError) Error() string { return "invalid watch pattern " + e.Pattern }

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logf("cannot watch %s: %v", path, err)
		}
		return nil
	})
}

// Match reports whether path (absolute or relative to the root) is watched.
func (w *Watcher) Match(path string) bool {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(w.root, path)
		if err != nil || strings.HasPrefix(r, "..") {
			return false
		}
		rel = r
	}
	rel = strings.ToLower(filepath.ToSlash(rel))
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Start forwards settled events until ctx is cancelled, then closes Events.
func (w *Watcher) Start(ctx context.Context) {
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := statDir(ev.Name); err == nil && info {
					if err := w.addTree(ev.Name); err != nil {
						w.logf("cannot watch %s: %v", ev.Name, err)
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.Match(ev.Name) {
				continue
			}
			w.schedule(ctx, Event{Path: ev.Name, Op: ev.Op})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, ev Event) {
	if w.debounce <= 0 {
		w.emit(ctx, ev)
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t := w.pending[ev.Path]; t != nil && t.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.inflight.Done()
		w.mu.Lock()
		if w.pending[ev.Path] == t {
			delete(w.pending, ev.Path)
		}
		w.mu.Unlock()
		w.emit(ctx, ev)
	})
	w.pending[ev.Path] = t
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.Events <- ev:
	case <-ctx.Done():
	}
}

// shutdown stops pending timers and waits for fired ones before closing
// Events, so no send can hit a closed channel.
func (w *Watcher) shutdown() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.inflight.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.inflight.Wait()
	close(w.Events)
	w.fsw.Close()
}
