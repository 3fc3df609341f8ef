package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_MissingFileIsSilent(t *testing.T) {
	root := t.TempDir()
	var n Notices

	cfg := Resolve(root, &n)

	assert.Equal(t, Default(), cfg)
	assert.Empty(t, n.Drain())
}

func TestResolve_MalformedFileFallsBackWithOneError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`{"commentTypes": [`), 0o644))
	var n Notices

	cfg := Resolve(root, &n)

	assert.Equal(t, Default(), cfg)
	notices := n.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, "error", notices[0].Level)
	assert.Contains(t, notices[0].Message, FileName)
}

func TestResolve_Override(t *testing.T) {
	root := t.TempDir()
	body := `{"commentTypes": ["hack", " TODO ", "todo", ""], "fileTypes": [".lua", "*.go"]}`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(body), 0o644))
	var n Notices

	cfg := Resolve(root, &n)

	assert.Equal(t, []string{"hack", "TODO"}, cfg.CommentTypes)
	assert.Equal(t, []string{"lua", "go"}, cfg.FileTypes)
	assert.Empty(t, n.Drain())
}

func TestResolve_EmptyListsUseDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`{"commentTypes": []}`), 0o644))

	cfg := Resolve(root, nil)

	assert.Equal(t, Default(), cfg)
}

func TestEnsureFile_WritesOnceAndNeverOverwrites(t *testing.T) {
	root := t.TempDir()

	created, err := EnsureFile(root)
	require.NoError(t, err)
	assert.True(t, created)

	b, err := os.ReadFile(filepath.Join(root, FileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "{\n  \"commentTypes\": [\n    \"TODO\","), "got %q", string(b))
	assert.Equal(t, Default(), Resolve(root, nil))

	custom := []byte(`{"commentTypes": ["XXX"]}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), custom, 0o644))

	created, err = EnsureFile(root)
	require.NoError(t, err)
	assert.False(t, created)

	b, err = os.ReadFile(filepath.Join(root, FileName))
	require.NoError(t, err)
	assert.Equal(t, string(custom), string(b))
}

func TestLoadSettings_DotEnvAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	env := "TODOTRACK_LOG_LEVEL=debug\nTODOTRACK_BACKEND=sqlite\nOTHER=1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))
	t.Setenv("TODOTRACK_BACKEND", "bleve")
	t.Setenv("TODOTRACK_DEBOUNCE", "75ms")

	s, err := LoadSettings(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
	assert.Equal(t, "bleve", s.Backend)
	assert.Equal(t, 75*time.Millisecond, s.Debounce)
}
