// Package watch turns filesystem events below component roots into delta
// batches for incremental passes.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/copyfold/pkg/delta"
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// Handler receives one batch of changes. Returned errors are logged and
// watching goes on.
type Handler func(ctx context.Context, changes delta.Set) error

// Options configure a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore holds folder or file names skipped anywhere below a root.
	Ignore []string
	Clock  clockwork.Clock
}

type root struct {
	item types.ItemID
	dir  string
}

// Watcher watches the roots of a set of items.
type Watcher struct {
	fs      types.FS
	roots   []root
	ignore  map[string]bool
	handler Handler
	clock   clockwork.Clock
	batch   *batcher
	logger  zerolog.Logger

	// subscribed runs once every root is watched.
	subscribed func()
}

// New returns a watcher for roots, keyed by the item owning each folder.
func New(fsys types.FS, roots map[types.ItemID]string, handler Handler, opts Options) (*Watcher, error) {
	if fsys == nil || handler == nil {
		return nil, errors.New(errors.ErrMissingArgument, "watcher needs a filesystem and a handler")
	}
	if len(roots) == 0 {
		return nil, errors.New(errors.ErrConfigValid, "nothing to watch")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	w := &Watcher{
		fs:      fsys,
		ignore:  make(map[string]bool, len(opts.Ignore)),
		handler: handler,
		clock:   opts.Clock,
		batch:   newBatcher(opts.Clock, opts.Debounce),
		logger:  logging.GetLogger("watch"),
	}
	for _, name := range opts.Ignore {
		w.ignore[name] = true
	}
	for item, dir := range roots {
		w.roots = append(w.roots, root{item: item, dir: filepath.Clean(dir)})
	}
	// longest first, so nested roots win
	sort.Slice(w.roots, func(i, j int) bool {
		if len(w.roots[i].dir) != len(w.roots[j].dir) {
			return len(w.roots[i].dir) > len(w.roots[j].dir)
		}
		return w.roots[i].item < w.roots[j].item
	})
	return w, nil
}

// Run watches until ctx ends. The handler is always called from the
// goroutine running Run.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot start filesystem watcher")
	}
	defer fsw.Close()
	defer w.batch.stop()

	for _, r := range w.roots {
		if err := w.addTree(fsw, r.dir, false); err != nil {
			return err
		}
	}
	w.logger.Info().Int("roots", len(w.roots)).Msg("Watching component roots")
	if w.subscribed != nil {
		w.subscribed()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		case <-w.batch.ready:
			changes := w.batch.take()
			if changes == nil {
				continue
			}
			w.logger.Debug().Int("items", len(changes)).Msg("Delivering changes")
			if err := w.handler(ctx, changes); err != nil {
				w.logger.Error().Err(err).Msg("Incremental pass failed")
			}
		}
	}
}

// addTree subscribes dir and its subfolders. With report set, files found
// are recorded as added, covering content created before the subscription.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string, report bool) error {
	return w.fs.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if p != dir && w.ignore[info.Name()] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if err := fsw.Add(p); err != nil {
				return errors.Wrapf(err, errors.ErrInternal, "cannot watch %s", p)
			}
			return nil
		}
		if report {
			w.record(p, delta.Added)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	kind, ok := KindOf(ev.Op)
	if !ok {
		return
	}
	if kind == delta.Added {
		if info, err := w.fs.Stat(ev.Name); err == nil && info.IsDir() {
			if _, _, ok := w.locate(ev.Name); ok {
				if err := w.addTree(fsw, ev.Name, true); err != nil {
					w.logger.Warn().Err(err).Str("path", ev.Name).Msg("Cannot watch new folder")
				}
			}
		}
	}
	w.record(ev.Name, kind)
}

func (w *Watcher) record(p string, kind delta.Kind) {
	item, rel, ok := w.locate(p)
	if !ok {
		return
	}
	if err := w.batch.add(item, rel, kind); err != nil {
		w.logger.Debug().Err(err).Str("path", p).Msg("Dropping change")
		return
	}
	w.logger.Trace().Str("item", string(item)).Str("path", rel).Stringer("kind", kind).Msg("Change")
}

// locate finds the item owning p and the slash path below its root.
// Roots themselves and ignored paths are not located.
func (w *Watcher) locate(p string) (types.ItemID, string, bool) {
	p = filepath.Clean(p)
	for _, r := range w.roots {
		rel, err := filepath.Rel(r.dir, p)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		rel = filepath.ToSlash(rel)
		for _, seg := range strings.Split(rel, "/") {
			if w.ignore[seg] {
				return "", "", false
			}
		}
		return r.item, rel, true
	}
	return "", "", false
}

// KindOf maps a filesystem operation onto a change kind.
func KindOf(op fsnotify.Op) (delta.Kind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return delta.Added, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return delta.Removed, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return delta.Changed, true
	}
	return 0, false
}
