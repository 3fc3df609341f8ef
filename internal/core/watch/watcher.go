package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"todotrack/internal/logging"
)

// Filter decides which paths are watched and reported.
type Filter interface {
	ShouldInclude(rel string, isDir bool) bool
}

type Options struct {
	Debounce time.Duration
	// AdaptiveDebounce scales the delay with the batch size, between
	// DebounceMin and DebounceMax.
	AdaptiveDebounce bool
	DebounceMin      time.Duration
	DebounceMax      time.Duration
	// UpdateFunc receives each debounced batch of root-relative,
	// slash-separated paths, sorted.
	UpdateFunc func(paths []string)
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = defaultDebounce
	}
	if o.DebounceMin <= 0 {
		o.DebounceMin = 50 * time.Millisecond
	}
	if o.DebounceMax <= 0 {
		o.DebounceMax = 500 * time.Millisecond
	}
	o.DebounceMax = max(o.DebounceMax, o.DebounceMin)
	return o
}

// adaptiveDelay keeps single saves snappy and lets bulk changes (branch
// switches, formatters) settle before rescanning.
func adaptiveDelay(lo, hi time.Duration) func(pending int) time.Duration {
	return func(pending int) time.Duration {
		switch {
		case pending <= 10:
			return lo
		case pending <= 100:
			return min(lo*2, hi)
		case pending <= 500:
			return min(lo*4, hi)
		default:
			return hi
		}
	}
}

// Watcher turns filesystem writes under a root into debounced batches of
// relative paths. It stands in for an editor's "document saved" event.
type Watcher struct {
	root   string
	filter Filter
	opts   Options
	log    *slog.Logger

	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	closeOnce sync.Once
	closed    chan struct{}
}

func NewWatcher(root string, filter Filter, opts Options) (*Watcher, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root is required")
	}
	if filter == nil {
		return nil, fmt.Errorf("filter is required")
	}
	if opts.UpdateFunc == nil {
		return nil, fmt.Errorf("update func is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:      filepath.Clean(rootAbs),
		filter:    filter,
		opts:      opts,
		log:       logging.OrDiscard(opts.Logger),
		fsw:       fsw,
		debouncer: NewDebouncer(opts.Debounce),
		closed:    make(chan struct{}),
	}
	if opts.AdaptiveDebounce {
		w.debouncer.SetDelayFunc(adaptiveDelay(opts.DebounceMin, opts.DebounceMax))
	}
	w.debouncer.OnFire(opts.UpdateFunc)

	if err := w.watchTree(w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Debounce() time.Duration {
	if w == nil {
		return 0
	}
	return w.opts.Debounce
}

func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() { close(w.closed) })
	w.debouncer.Stop()
	return w.fsw.Close()
}

// Run delivers events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.fsw == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.closed:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Warn("watch event overflow, some saves may be missed", slog.Any("error", err))
				continue
			}
			return err
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, ok := w.rel(ev.Name)
	if !ok {
		return
	}

	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if err := w.watchTree(ev.Name); err != nil {
				w.log.Warn("could not watch new directory", slog.String("dir", rel), slog.Any("error", err))
			}
			return
		}
	}

	// Remove and Rename are reported too so the file's records get cleared.
	const saveOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	if ev.Op&saveOps == 0 || !w.filter.ShouldInclude(rel, false) {
		return
	}
	w.log.Debug("file changed", slog.String("path", rel), slog.String("op", ev.Op.String()))
	w.debouncer.Push(rel)
}

// watchTree adds dir and every included directory below it.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(p); ok && !w.filter.ShouldInclude(rel, true) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// rel maps an absolute path under the root to its slash-separated relative
// form. The root itself and paths outside it are rejected.
func (w *Watcher) rel(abs string) (string, bool) {
	if strings.TrimSpace(abs) == "" {
		return "", false
	}
	rel, err := filepath.Rel(w.root, filepath.Clean(abs))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
