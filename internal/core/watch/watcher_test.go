package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type extFilter string

func (f extFilter) ShouldInclude(rel string, isDir bool) bool {
	if isDir {
		return !strings.HasSuffix(rel, "node_modules")
	}
	return strings.HasSuffix(rel, string(f))
}

func TestWatcher_ReportsSavedFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pkg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	batches := make(chan []string, 8)
	w, err := NewWatcher(root, extFilter(".go"), Options{
		Debounce:   50 * time.Millisecond,
		UpdateFunc: func(paths []string) { batches <- paths },
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	if w.Debounce() != 50*time.Millisecond {
		t.Fatalf("debounce=%v", w.Debounce())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	_ = os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("// TODO\n"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("// TODO\n"), 0o644)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case paths := <-batches:
			for _, p := range paths {
				if p == "notes.txt" {
					t.Fatalf("filtered path reported: %v", paths)
				}
				if p == "pkg/a.go" {
					return
				}
			}
		case <-deadline:
			t.Fatal("timeout waiting for pkg/a.go")
		}
	}
}

func TestNewWatcher_RequiresUpdateFunc(t *testing.T) {
	if _, err := NewWatcher(t.TempDir(), extFilter(".go"), Options{}); err == nil {
		t.Fatal("expected error")
	}
}
