package todocli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"todotrack/internal/core/scan"
)

// Explain collects facts about one command run and prints them to stderr
// when --explain is set.
type Explain struct {
	mu     sync.Mutex
	format string
	kv     map[string]any
}

func NewExplain(format string) *Explain {
	format = strings.TrimSpace(format)
	if format == "" {
		return nil
	}
	return &Explain{format: format, kv: map[string]any{}}
}

func (e *Explain) KV(key string, value any) {
	if e == nil {
		return
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	e.mu.Lock()
	e.kv[key] = value
	e.mu.Unlock()
}

func (e *Explain) Scan(st scan.Stats) {
	e.KV("files", st.Files)
	e.KV("files_scanned", st.Scanned)
	e.KV("files_failed", st.Failed)
	e.KV("records", st.Records)
	e.KV("elapsed_ms_scan", st.Duration.Milliseconds())
}

func (e *Explain) Snapshot() map[string]any {
	if e == nil {
		return map[string]any{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.kv))
	for k, v := range e.kv {
		out[k] = v
	}
	return out
}

func (e *Explain) Emit(w io.Writer) error {
	if e == nil || w == nil {
		return nil
	}
	snap := e.Snapshot()

	if e.format == "json" {
		b, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, _ = fmt.Fprintln(w, "explain:")
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", k, snap[k])
	}
	return nil
}
