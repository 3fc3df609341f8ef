package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_JSONFormatWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Debug("scan done", "files", 3)

	s := buf.String()
	if !strings.Contains(s, `"msg":"scan done"`) || !strings.Contains(s, `"files":3`) {
		t.Fatalf("unexpected output: %s", s)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", "text", &buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestNew_RejectsUnknownValues(t *testing.T) {
	if _, err := New("loud", "text", nil); err == nil {
		t.Fatal("expected error for level")
	}
	if _, err := New("info", "xml", nil); err == nil {
		t.Fatal("expected error for format")
	}
}
