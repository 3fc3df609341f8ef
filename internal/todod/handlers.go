package todod

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"todotrack/internal/config"
	"todotrack/internal/core/tracker"
	"todotrack/internal/core/watch"
	"todotrack/internal/logging"
	"todotrack/internal/model"
)

var errWorkspaceNotFound = fmt.Errorf("workspace not found")

type workspace struct {
	tr      *tracker.Tracker
	notices *config.Notices

	// scanMu keeps one scan request at a time so each one drains only the
	// notices it produced.
	scanMu sync.Mutex

	mu    sync.Mutex
	watch *watchState
}

type watchState struct {
	w      *watch.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// Handlers owns the daemon's workspaces. Each workspace is one tracker
// session; notices raised while serving a request are returned with it.
type Handlers struct {
	log     *slog.Logger
	workers int

	mu         sync.RWMutex
	workspaces map[string]*workspace
}

func NewHandlers(log *slog.Logger, workers int) *Handlers {
	return &Handlers{
		log:        logging.OrDiscard(log),
		workers:    workers,
		workspaces: map[string]*workspace{},
	}
}

func (h *Handlers) WorkspaceAdd(p WorkspaceAddParams) (string, error) {
	if h == nil {
		return "", fmt.Errorf("handlers is nil")
	}
	root := strings.TrimSpace(p.Root)
	if root == "" {
		return "", fmt.Errorf("root is required")
	}

	wsid := uuid.NewString()
	notices := &config.Notices{}
	tr, err := tracker.New(root, tracker.Options{
		Backend:          p.Backend,
		Workers:          h.workers,
		ExcludeGlobs:     p.ExcludeGlobs,
		RespectGitignore: p.RespectGitignore,
		Bootstrap:        p.Bootstrap,
		Logger:           h.log.With(slog.String("workspace", wsid)),
		Notifier: config.Tee{
			config.LogNotifier{Logger: h.log.With(slog.String("workspace", wsid))},
			notices,
		},
	})
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.workspaces[wsid] = &workspace{tr: tr, notices: notices}
	h.mu.Unlock()

	h.log.Info("workspace added", slog.String("workspace", wsid), slog.String("root", tr.Root()), slog.String("backend", tr.Store().Backend()))
	return wsid, nil
}

func (h *Handlers) ScanRefresh(ctx context.Context, p WorkspaceParams) (RefreshResult, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return RefreshResult{}, err
	}
	defer ws.beginScan()()

	st, err := ws.tr.Refresh(ctx)
	notices := ws.notices.Drain()
	if err != nil {
		return RefreshResult{}, err
	}
	return RefreshResult{Stats: st, Notices: notices}, nil
}

func (h *Handlers) ScanFile(ctx context.Context, p ScanFileParams) (ScanFileResult, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return ScanFileResult{}, err
	}
	defer ws.beginScan()()

	err = ws.tr.RescanFile(ctx, p.Path)
	notices := ws.notices.Drain()
	if err != nil {
		return ScanFileResult{}, err
	}
	return ScanFileResult{Path: p.Path, Notices: notices}, nil
}

// beginScan takes the workspace scan lock and drops notices left by
// watcher-driven rescans, which were already logged. The returned func
// releases the lock.
func (ws *workspace) beginScan() func() {
	ws.scanMu.Lock()
	ws.notices.Drain()
	return ws.scanMu.Unlock
}

func (h *Handlers) Groups(p WorkspaceParams) (tracker.GroupsView, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return tracker.GroupsView{}, err
	}
	return ws.tr.Groups()
}

// Items returns one tag group when Tag is set, otherwise every record
// restricted to Tags.
func (h *Handlers) Items(p ItemsParams) ([]model.Item, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Tag) != "" {
		return ws.tr.Items(p.Tag)
	}
	return ws.tr.List(p.Tags)
}

func (h *Handlers) Open(p OpenParams) (model.Location, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return model.Location{}, err
	}
	return ws.tr.Locate(p.File, p.Line)
}

func (h *Handlers) Search(p SearchParams) ([]model.Item, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return ws.tr.Search(p.Text, p.Limit)
}

func (h *Handlers) WatchStart(p WatchStartParams) (WatchStatusResult, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return WatchStatusResult{}, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.watch != nil {
		return WatchStatusResult{Running: true}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	log := h.log.With(slog.String("workspace", p.WorkspaceID))
	w, err := watch.NewWatcher(ws.tr.Root(), ws.tr, watch.Options{
		Debounce:         time.Duration(p.DebounceMS) * time.Millisecond,
		AdaptiveDebounce: p.AdaptiveDebounce,
		Logger:           log,
		UpdateFunc: func(paths []string) {
			ws.tr.HandleSaved(ctx, paths)
		},
	})
	if err != nil {
		cancel()
		return WatchStatusResult{}, err
	}

	st := &watchState{w: w, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(st.done)
		if err := w.Run(ctx); err != nil {
			log.Error("watcher stopped", slog.Any("error", err))
		}
	}()
	ws.watch = st
	return WatchStatusResult{Running: true}, nil
}

func (h *Handlers) WatchStop(p WorkspaceParams) (WatchStatusResult, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return WatchStatusResult{}, err
	}
	ws.stopWatch()
	return WatchStatusResult{Running: false}, nil
}

func (h *Handlers) WatchStatus(p WorkspaceParams) (WatchStatusResult, error) {
	ws, err := h.getWorkspace(p.WorkspaceID)
	if err != nil {
		return WatchStatusResult{}, err
	}
	ws.mu.Lock()
	running := ws.watch != nil
	ws.mu.Unlock()
	return WatchStatusResult{Running: running}, nil
}

// Close stops every watcher and releases every workspace.
func (h *Handlers) Close() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	all := h.workspaces
	h.workspaces = map[string]*workspace{}
	h.mu.Unlock()

	var firstErr error
	for _, ws := range all {
		ws.stopWatch()
		if err := ws.tr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (ws *workspace) stopWatch() {
	ws.mu.Lock()
	st := ws.watch
	ws.watch = nil
	ws.mu.Unlock()
	if st == nil {
		return
	}
	st.cancel()
	_ = st.w.Close()
	<-st.done
}

func (h *Handlers) getWorkspace(workspaceID string) (*workspace, error) {
	if h == nil {
		return nil, fmt.Errorf("handlers is nil")
	}
	h.mu.RLock()
	ws, ok := h.workspaces[strings.TrimSpace(workspaceID)]
	h.mu.RUnlock()
	if !ok {
		return nil, errWorkspaceNotFound
	}
	return ws, nil
}
