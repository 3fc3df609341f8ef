package todod

import (
	"encoding/json"

	"todotrack/internal/config"
	"todotrack/internal/core/scan"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeNoMethod       = -32601
	codeInvalidParams  = -32602
	codeHandler        = -32000
)

type WorkspaceAddParams struct {
	Root             string   `json:"root"`
	Backend          string   `json:"backend,omitempty"`
	ExcludeGlobs     []string `json:"exclude_globs,omitempty"`
	RespectGitignore bool     `json:"respect_gitignore,omitempty"`
	// Bootstrap writes a default .todo.json on the first scan.
	Bootstrap bool `json:"bootstrap,omitempty"`
}

type WorkspaceParams struct {
	WorkspaceID string `json:"workspace_id"`
}

type ScanFileParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
}

type ItemsParams struct {
	WorkspaceID string   `json:"workspace_id"`
	Tag         string   `json:"tag,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type OpenParams struct {
	WorkspaceID string `json:"workspace_id"`
	File        string `json:"file"`
	Line        int    `json:"line"`
}

type SearchParams struct {
	WorkspaceID string `json:"workspace_id"`
	Text        string `json:"text"`
	Limit       int    `json:"limit,omitempty"`
}

type WatchStartParams struct {
	WorkspaceID      string `json:"workspace_id"`
	DebounceMS       int    `json:"debounce_ms,omitempty"`
	AdaptiveDebounce bool   `json:"adaptive_debounce,omitempty"`
}

type RefreshResult struct {
	Stats   scan.Stats      `json:"stats"`
	Notices []config.Notice `json:"notices,omitempty"`
}

type ScanFileResult struct {
	Path    string          `json:"path"`
	Notices []config.Notice `json:"notices,omitempty"`
}

type WatchStatusResult struct {
	Running bool `json:"running"`
}
