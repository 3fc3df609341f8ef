package todod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"todotrack/internal/logging"
)

func TestHandlers_FailedRefreshDoesNotLeakNotices(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".todo.json", "{broken")

	h := NewHandlers(logging.Discard(), 1)
	t.Cleanup(func() { _ = h.Close() })
	wsid, err := h.WorkspaceAdd(WorkspaceAddParams{Root: root})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.ScanRefresh(ctx, WorkspaceParams{WorkspaceID: wsid})
	require.Error(t, err)

	writeFile(t, root, ".todo.json", `{"commentTypes":["TODO"]}`)
	writeFile(t, root, "a.go", "// TODO: a\n")
	res, err := h.ScanRefresh(context.Background(), WorkspaceParams{WorkspaceID: wsid})
	require.NoError(t, err)
	require.Empty(t, res.Notices)
	require.Equal(t, 1, res.Stats.Records)
}

func TestHandlers_ScanDropsBackgroundNotices(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "// TODO: a\n")

	h := NewHandlers(logging.Discard(), 1)
	t.Cleanup(func() { _ = h.Close() })
	wsid, err := h.WorkspaceAdd(WorkspaceAddParams{Root: root})
	require.NoError(t, err)

	_, err = h.ScanRefresh(context.Background(), WorkspaceParams{WorkspaceID: wsid})
	require.NoError(t, err)

	ws, err := h.getWorkspace(wsid)
	require.NoError(t, err)
	ws.notices.Error("from an earlier watcher rescan")

	res, err := h.ScanFile(context.Background(), ScanFileParams{WorkspaceID: wsid, Path: "a.go"})
	require.NoError(t, err)
	require.Empty(t, res.Notices)
}
