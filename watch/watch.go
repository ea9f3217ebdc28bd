// watch/watch.go

// Package watch reports changes under a site's source directory, batched
// so that a burst of writes (an editor save, a git checkout) triggers one
// rebuild.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a batch is reported.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Ignore lists directories whose contents are not watched, such as
	// the build destination.
	Ignore   []string
	Debounce time.Duration
}

// Watcher watches a directory tree. New directories are picked up as
// they appear. Hidden files and editor backups (name~) are ignored.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	logger   *zap.Logger
	fsw      *fsnotify.Watcher
}

func New(root string, opts Options, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	w := &Watcher{root: abs, debounce: opts.Debounce, logger: logger}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, dir := range opts.Ignore {
		if d, err := filepath.Abs(dir); err == nil {
			w.ignore = append(w.ignore, d)
		}
	}

	w.fsw, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := w.addTree(abs); err != nil {
		w.fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching. Run returns afterwards.
func (w *Watcher) Close() error { return w.fsw.Close() }

func (w *Watcher) skip(p string) bool {
	for _, d := range w.ignore {
		if p == d || strings.HasPrefix(p, d+string(filepath.Separator)) {
			return true
		}
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, "~") {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.skip(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Run calls onChange with the sorted paths changed since the last call,
// once the tree has been quiet for the debounce period. It returns when
// ctx is done or the watcher is closed. onChange runs on Run's goroutine,
// so changes made during a rebuild are reported in the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	pending := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || w.skip(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Warn("cannot watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			w.logger.Debug("source changed", zap.Strings("paths", paths))
			onChange(ctx, paths)
		}
	}
}
