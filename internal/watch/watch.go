// Package watch re-validates requirements files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/reqguard/internal/input"
)

// DefaultDebounce is how long a file must stay quiet before it is
// re-validated. Each new change restarts the wait.
const DefaultDebounce = 500 * time.Millisecond

// Handler is called with the freshly loaded document after each change.
type Handler func(ctx context.Context, doc *input.Document) error

// Config configures a Watcher.
type Config struct {
	Paths    []string
	Debounce time.Duration
	Input    input.Options
	Logger   *slog.Logger
}

// Watcher watches a fixed set of files. Directories are watched rather than
// the files themselves so that editors that save by rename are seen.
type Watcher struct {
	cfg    Config
	handle Handler
	files  map[string]bool

	mu      sync.Mutex
	pending map[string]bool
	hashes  map[string]string
}

// New returns a Watcher for cfg.Paths.
func New(cfg Config, handle Handler) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("watch: no files given")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	files := make(map[string]bool, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: %w", err)
		}
		files[abs] = true
	}
	return &Watcher{
		cfg:     cfg,
		handle:  handle,
		files:   files,
		pending: make(map[string]bool),
		hashes:  make(map[string]string),
	}, nil
}

// Run validates every file once, then again after each change, until ctx
// is cancelled. Handler errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fsw.Close()

	dirs := map[string]bool{}
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for d := range dirs {
		if err := fsw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
		w.cfg.Logger.Debug("watching directory", "path", d)
	}

	for _, f := range w.sorted() {
		w.process(ctx, f)
	}

	quiet := time.NewTimer(w.cfg.Debounce)
	quiet.Stop()
	defer quiet.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.note(ev) {
				quiet.Reset(w.cfg.Debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.cfg.Logger.Error("watcher error", "error", err)
		case <-quiet.C:
			w.flush(ctx)
		}
	}
}

// note queues a watched file for the next flush and reports whether it did.
func (w *Watcher) note(ev fsnotify.Event) bool {
	path, err := filepath.Abs(ev.Name)
	if err != nil || !w.files[path] {
		return false
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	w.mu.Lock()
	w.pending[path] = true
	w.mu.Unlock()
	w.cfg.Logger.Debug("change detected", "path", path, "op", ev.Op.String())
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(paths)
	for _, p := range paths {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, p)
	}
}

// process loads path and calls the handler unless the content is unchanged
// since the last successful load.
func (w *Watcher) process(ctx context.Context, path string) {
	doc, err := input.Load(path, w.cfg.Input)
	if err != nil {
		// A rename-save can leave the file briefly absent; the Create that
		// follows queues it again.
		w.cfg.Logger.Warn("cannot load file", "path", path, "error", err)
		return
	}

	w.mu.Lock()
	unchanged := w.hashes[path] == doc.Hash
	w.hashes[path] = doc.Hash
	w.mu.Unlock()
	if unchanged {
		w.cfg.Logger.Debug("content unchanged", "path", path)
		return
	}

	if err := w.handle(ctx, doc); err != nil {
		w.cfg.Logger.Warn("validation failed", "path", path, "error", err)
	}
}

func (w *Watcher) sorted() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
