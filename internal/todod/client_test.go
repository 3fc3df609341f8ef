package todod

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"todotrack/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func dialServer(t *testing.T) *Client {
	t.Helper()
	s := startServer(t)
	c, err := Dial(s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping())
	return c
}

func TestClient_ScanGroupsItems(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.go", "package a\n// TODO: fix this\n// FIXME broken\n")
	writeFile(t, root, "src/b.ts", "// todo lower\n")

	for _, backend := range []string{"memory", "sqlite", "bleve"} {
		t.Run(backend, func(t *testing.T) {
			c := dialServer(t)
			wsid, err := c.WorkspaceAdd(WorkspaceAddParams{Root: root, Backend: backend})
			require.NoError(t, err)
			require.NotEmpty(t, wsid)

			res, err := c.ScanRefresh(wsid)
			require.NoError(t, err)
			require.Equal(t, 2, res.Stats.Files)
			require.Equal(t, 3, res.Stats.Records)

			view, err := c.Groups(wsid)
			require.NoError(t, err)
			require.False(t, view.Scanning)
			require.Equal(t, []model.Group{{Tag: "TODO", Count: 2}, {Tag: "FIXME", Count: 1}}, view.Groups)

			items, err := c.Items(ItemsParams{WorkspaceID: wsid, Tag: "todo"})
			require.NoError(t, err)
			require.Len(t, items, 2)
			require.Equal(t, "src/a.go", items[0].RelPath)
			require.Equal(t, "// TODO: fix this (Line 2)", items[0].Tooltip)

			hits, err := c.Search(SearchParams{WorkspaceID: wsid, Text: "broken"})
			require.NoError(t, err)
			require.Len(t, hits, 1)
			require.Equal(t, "FIXME", hits[0].Tag)
		})
	}
}

func TestClient_ScanFileAndOpen(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "// TODO one\n")

	c := dialServer(t)
	wsid, err := c.WorkspaceAdd(WorkspaceAddParams{Root: root})
	require.NoError(t, err)
	_, err = c.ScanRefresh(wsid)
	require.NoError(t, err)

	writeFile(t, root, "a.go", "package a\n\n// NOTE: moved\n")
	_, err = c.ScanFile(wsid, "a.go")
	require.NoError(t, err)

	items, err := c.Items(ItemsParams{WorkspaceID: wsid})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "NOTE", items[0].Tag)
	require.Equal(t, 3, items[0].Line)

	loc, err := c.Open(OpenParams{WorkspaceID: wsid, File: items[0].File, Line: items[0].Line})
	require.NoError(t, err)
	require.Equal(t, model.Location{Path: filepath.Join(root, "a.go"), Line0: 2, Col: 0}, loc)

	require.NoError(t, os.Remove(filepath.Join(root, "a.go")))
	_, err = c.ScanFile(wsid, "a.go")
	require.NoError(t, err)
	view, err := c.Groups(wsid)
	require.NoError(t, err)
	require.Empty(t, view.Groups)

	_, err = c.Open(OpenParams{WorkspaceID: wsid, File: "a.go", Line: 3})
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, codeHandler, rpcErr.Code)
}

func TestClient_RefreshReturnsNotices(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".todo.json", "{broken")

	c := dialServer(t)
	wsid, err := c.WorkspaceAdd(WorkspaceAddParams{Root: root})
	require.NoError(t, err)

	res, err := c.ScanRefresh(wsid)
	require.NoError(t, err)
	require.Len(t, res.Notices, 1)
	require.Equal(t, "error", res.Notices[0].Level)
	require.Contains(t, res.Notices[0].Message, "Error reading .todo.json")

	// Drained: the next refresh reports only its own notices.
	writeFile(t, root, ".todo.json", `{"commentTypes":["HACK"]}`)
	writeFile(t, root, "x.go", "// hack: here\n")
	res, err = c.ScanRefresh(wsid)
	require.NoError(t, err)
	require.Empty(t, res.Notices)
	require.Equal(t, 1, res.Stats.Records)
}

func TestClient_EmptyProjectNotice(t *testing.T) {
	c := dialServer(t)
	wsid, err := c.WorkspaceAdd(WorkspaceAddParams{Root: t.TempDir()})
	require.NoError(t, err)

	res, err := c.ScanRefresh(wsid)
	require.NoError(t, err)
	require.Len(t, res.Notices, 1)
	require.Equal(t, "info", res.Notices[0].Level)
	require.Equal(t, 0, res.Stats.Files)
}

func TestClient_WatchLifecycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")

	c := dialServer(t)
	wsid, err := c.WorkspaceAdd(WorkspaceAddParams{Root: root})
	require.NoError(t, err)
	_, err = c.ScanRefresh(wsid)
	require.NoError(t, err)

	st, err := c.WatchStatus(wsid)
	require.NoError(t, err)
	require.False(t, st.Running)

	st, err = c.WatchStart(WatchStartParams{WorkspaceID: wsid, DebounceMS: 30})
	require.NoError(t, err)
	require.True(t, st.Running)

	writeFile(t, root, "a.go", "package a\n// TODO: from watcher\n")
	require.Eventually(t, func() bool {
		items, err := c.Items(ItemsParams{WorkspaceID: wsid, Tag: "TODO"})
		return err == nil && len(items) == 1 && items[0].Line == 2
	}, 3*time.Second, 20*time.Millisecond)

	st, err = c.WatchStop(wsid)
	require.NoError(t, err)
	require.False(t, st.Running)

	st, err = c.WatchStatus(wsid)
	require.NoError(t, err)
	require.False(t, st.Running)
}

func TestClient_WorkspaceAddRejectsBadRoot(t *testing.T) {
	c := dialServer(t)

	_, err := c.WorkspaceAdd(WorkspaceAddParams{})
	require.Error(t, err)

	_, err = c.WorkspaceAdd(WorkspaceAddParams{Root: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)

	_, err = c.WorkspaceAdd(WorkspaceAddParams{Root: t.TempDir(), Backend: "wat"})
	require.Error(t, err)
}
