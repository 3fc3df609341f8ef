package tracker

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

	"todotrack/internal/config"
	"todotrack/internal/core/results"
	"todotrack/internal/core/scan"
	"todotrack/internal/core/walk"
	"todotrack/internal/index/backend"
	"todotrack/internal/logging"
	"todotrack/internal/model"
)

// NoFilesMessage is shown when a full scan finds nothing to read.
const NoFilesMessage = "No matching files found! Check workspace folder."

type Options struct {
	Backend          string
	Workers          int
	ExcludeGlobs     []string
	RespectGitignore bool
	// Bootstrap writes a default .todo.json before the first scan when the
	// project has none.
	Bootstrap bool

	Source   scan.Source
	Logger   *slog.Logger
	Notifier config.Notifier
}

// Tracker is one scanning session over a project root. It owns the result
// store; full scans and per-file rescans both go through it.
type Tracker struct {
	root    string
	opts    Options
	log     *slog.Logger
	notify  config.Notifier
	store   *results.Store
	scanner *scan.Scanner

	mu     sync.RWMutex
	cfg    config.Config
	loaded bool
	filter *walk.Filter
}

type GroupsView struct {
	Scanning bool          `json:"scanning"`
	Groups   []model.Group `json:"groups"`
}

func New(root string, opts Options) (*Tracker, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	rootAbs = filepath.Clean(rootAbs)
	st, err := os.Stat(rootAbs)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", rootAbs)
	}

	be, err := backend.Open(opts.Backend)
	if err != nil {
		return nil, err
	}

	log := logging.OrDiscard(opts.Logger)
	notify := opts.Notifier
	if notify == nil {
		notify = config.LogNotifier{Logger: log}
	}
	src := opts.Source
	if src == nil {
		src = scan.OSSource{Root: rootAbs}
	}

	t := &Tracker{
		root:    rootAbs,
		opts:    opts,
		log:     log,
		notify:  notify,
		store:   results.New(be),
		scanner: scan.New(src, scan.Options{Workers: opts.Workers, Logger: log}),
		cfg:     config.Default(),
	}
	t.store.SetTagOrder(t.cfg.CommentTypes)
	return t, nil
}

func (t *Tracker) Close() error {
	if t == nil {
		return nil
	}
	return t.store.Close()
}

func (t *Tracker) Root() string { return t.root }

func (t *Tracker) Store() *results.Store { return t.store }

func (t *Tracker) Config() config.Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

// Refresh runs a full project scan and replaces the whole result set.
func (t *Tracker) Refresh(ctx context.Context) (scan.Stats, error) {
	since := t.store.BeginScan()
	defer t.store.EndScan()

	cfg, err := t.reload()
	if err != nil {
		return scan.Stats{}, err
	}

	files, err := walk.ListFiles(ctx, t.root, t.walkOptions(cfg))
	if err != nil {
		return scan.Stats{}, fmt.Errorf("list files: %w", err)
	}

	if len(files) == 0 {
		t.notify.Info(NoFilesMessage)
		if err := t.store.ReplaceAllSince(since, nil); err != nil {
			return scan.Stats{}, err
		}
		return scan.Stats{}, nil
	}

	ids := make([]string, 0, len(files))
	for _, rel := range files {
		ids = append(ids, filepath.Join(t.root, filepath.FromSlash(rel)))
	}

	recs, stats, err := t.scanner.ScanFiles(ctx, ids, cfg)
	if err != nil {
		return stats, err
	}
	if err := t.store.ReplaceAllSince(since, recs); err != nil {
		return stats, err
	}

	t.log.Debug("full scan complete",
		slog.String("root", t.root),
		slog.Int("files", stats.Files),
		slog.Int("failed", stats.Failed),
		slog.Int("records", stats.Records),
		slog.Duration("took", stats.Duration),
	)
	return stats, nil
}

// RescanFile replaces the records of one file with a fresh scan of it. A
// file that no longer exists is cleared.
func (t *Tracker) RescanFile(ctx context.Context, path string) error {
	abs, rel, ok := t.resolve(path)
	if !ok {
		return fmt.Errorf("path is outside the project: %s", path)
	}

	cfg, filter := t.current()
	if !filter.ShouldInclude(rel, false) {
		return nil
	}

	if _, err := os.Stat(abs); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.log.Warn("error scanning file", slog.String("file", abs), slog.Any("error", err))
		}
		return t.store.ReplaceForFile(abs, nil)
	}

	recs, err := t.scanner.ScanFile(ctx, abs, cfg)
	if err != nil {
		return err
	}
	return t.store.ReplaceForFile(abs, recs)
}

// HandleSaved is the save-event handler: paths are relative to the root.
// Saving the project's .todo.json triggers a full scan instead.
func (t *Tracker) HandleSaved(ctx context.Context, paths []string) {
	for _, p := range paths {
		if filepath.ToSlash(p) == config.FileName {
			if _, err := t.Refresh(ctx); err != nil {
				t.log.Error("refresh failed", slog.Any("error", err))
			}
			return
		}
	}
	for _, p := range paths {
		if err := t.RescanFile(ctx, p); err != nil {
			t.log.Warn("rescan failed", slog.String("path", p), slog.Any("error", err))
		}
	}
}

// ShouldInclude reports whether rel is part of the scan set. The watcher
// uses it to drop events early.
func (t *Tracker) ShouldInclude(rel string, isDir bool) bool {
	if !isDir && filepath.ToSlash(rel) == config.FileName {
		return true
	}
	_, filter := t.current()
	return filter.ShouldInclude(rel, isDir)
}

func (t *Tracker) Groups() (GroupsView, error) {
	scanning, groups, err := t.store.Snapshot()
	if err != nil {
		return GroupsView{}, err
	}
	return GroupsView{Scanning: scanning, Groups: groups}, nil
}

// Items returns the records of one tag group, prepared for display.
func (t *Tracker) Items(tag string) ([]model.Item, error) {
	recs, err := t.store.Query(results.ByTag(tag))
	if err != nil {
		return nil, err
	}
	return t.toItems(recs), nil
}

// List returns every record, optionally restricted to tags, as items.
func (t *Tracker) List(tags []string) ([]model.Item, error) {
	recs, err := t.store.Query(results.AnyTag(tags))
	if err != nil {
		return nil, err
	}
	return t.toItems(recs), nil
}

func (t *Tracker) Search(text string, limit int) ([]model.Item, error) {
	recs, err := t.store.Search(text, limit)
	if err != nil {
		return nil, err
	}
	return t.toItems(recs), nil
}

// Locate turns a record position into an editor location: 0-based line,
// start of line.
func (t *Tracker) Locate(file string, line int) (model.Location, error) {
	if line < 1 {
		return model.Location{}, fmt.Errorf("line must be >= 1, got %d", line)
	}
	abs, _, ok := t.resolve(file)
	if !ok {
		abs = filepath.Clean(file)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return model.Location{}, fmt.Errorf("open %s: %w", file, err)
	}
	if st.IsDir() {
		return model.Location{}, fmt.Errorf("open %s: is a directory", file)
	}
	return model.Location{Path: abs, Line0: line - 1, Col: 0}, nil
}

func (t *Tracker) toItems(recs []model.Record) []model.Item {
	out := make([]model.Item, 0, len(recs))
	for _, r := range recs {
		out = append(out, model.Item{
			File:    r.File,
			RelPath: t.relPath(r.File),
			Name:    filepath.Base(r.File),
			Tag:     r.Tag,
			Line:    r.Line,
			Text:    r.Text,
			Tooltip: Tooltip(r),
		})
	}
	return out
}

func Tooltip(r model.Record) string {
	return fmt.Sprintf("%s (Line %d)", r.Text, r.Line)
}

func (t *Tracker) reload() (config.Config, error) {
	if t.opts.Bootstrap {
		if created, err := config.EnsureFile(t.root); err != nil {
			t.log.Warn("could not write default config", slog.Any("error", err))
		} else if created {
			t.log.Info("wrote default config", slog.String("path", filepath.Join(t.root, config.FileName)))
		}
	}

	cfg := config.Resolve(t.root, t.notify)
	filter, err := walk.NewFilter(t.root, t.walkOptions(cfg))
	if err != nil {
		return cfg, fmt.Errorf("build filter: %w", err)
	}

	t.mu.Lock()
	t.cfg = cfg
	t.filter = filter
	t.loaded = true
	t.mu.Unlock()

	t.store.SetTagOrder(cfg.CommentTypes)
	return cfg, nil
}

// current returns the configuration of the last full scan, loading it once
// if no scan has run yet.
func (t *Tracker) current() (config.Config, *walk.Filter) {
	t.mu.RLock()
	cfg, filter, loaded := t.cfg, t.filter, t.loaded
	t.mu.RUnlock()
	if loaded {
		return cfg, filter
	}
	if _, err := t.reload(); err != nil {
		t.log.Warn("could not load config", slog.Any("error", err))
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg, t.filter
}

func (t *Tracker) walkOptions(cfg config.Config) walk.Options {
	return walk.Options{
		FileTypes:        cfg.FileTypes,
		ExcludeGlobs:     t.opts.ExcludeGlobs,
		RespectGitignore: t.opts.RespectGitignore,
		Logger:           t.log,
	}
}

// resolve maps an absolute or root-relative path to its absolute file id
// and slash-separated relative path.
func (t *Tracker) resolve(path string) (string, string, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", "", false
	}
	abs := filepath.FromSlash(path)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(t.root, abs)
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(t.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return abs, "", false
	}
	return abs, filepath.ToSlash(rel), true
}

func (t *Tracker) relPath(file string) string {
	if _, rel, ok := t.resolve(file); ok {
		return rel
	}
	return filepath.ToSlash(file)
}
