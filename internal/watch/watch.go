// Package watch reloads the asset cache when artwork on disk changes.
package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the watcher waits for a burst of file events
// to finish before reloading.
const DefaultSettle = 250 * time.Millisecond

// Reloader drops cached assets.
type Reloader interface {
	Reload()
}

// Watcher monitors an asset directory tree with fsnotify and calls
// Reload once per burst of changes to files matching the pattern.
type Watcher struct {
	root    string
	pattern string
	target  Reloader
	settle  time.Duration
	logger  *slog.Logger

	fsw     *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// New starts watching root and every directory below it.
func New(root, pattern string, target Reloader, opts ...Option) (*Watcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}
	w := &Watcher{
		root:    root,
		pattern: pattern,
		target:  target,
		settle:  DefaultSettle,
		logger:  slog.Default(),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w.fsw = fsw
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(2)
	go w.watch()
	go w.reload()
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Matches reports whether path, relative to the watched root, is an asset.
func (w *Watcher) Matches(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					// new subdirectories need their own watch
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Warn("asset watcher", "error", err)
					}
				}
			}
			if ev.Op == fsnotify.Chmod || !w.Matches(ev.Name) {
				continue
			}
			w.logger.Debug("asset changed", "path", ev.Name, "op", ev.Op.String())
			w.notify()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("asset watcher error", "error", err)
		}
	}
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

func (w *Watcher) reload() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case <-w.changes:
		}
		select {
		case <-w.done:
			return
		case <-time.After(w.settle):
		}
		// drain changes that arrived while settling
		select {
		case <-w.changes:
		default:
		}
		w.logger.Info("assets changed on disk, reloading", "root", w.root)
		w.target.Reload()
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if cerr := w.fsw.Close(); cerr != nil {
			err = fmt.Errorf("closing fsnotify watcher: %w", cerr)
		}
		w.wg.Wait()
	})
	return err
}
