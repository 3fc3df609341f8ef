package todod

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"todotrack/internal/logging"
	"todotrack/internal/version"
)

type Options struct {
	Listen string
	// Workers bounds concurrent file reads per full scan; 0 means CPU count.
	Workers int
	Logger  *slog.Logger
}

type Server struct {
	opts Options
	h    *Handlers
	log  *slog.Logger

	mu        sync.Mutex
	listener  net.Listener
	closeOnce sync.Once
	closed    chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewServer(opts Options) *Server {
	if opts.Listen == "" {
		opts.Listen = "127.0.0.1:7337"
	}
	log := logging.OrDiscard(opts.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:   opts,
		h:      NewHandlers(log, opts.Workers),
		log:    log,
		closed: make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Run() error {
	if s == nil {
		return fmt.Errorf("server is nil")
	}

	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.log.Info("listening", slog.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting connections and releases every workspace.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}

	s.closeOnce.Do(func() {
		close(s.closed)
		s.cancel()
	})

	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	herr := s.h.Close()
	if ln == nil {
		return herr
	}
	if err := ln.Close(); err != nil {
		return err
	}
	return herr
}

func (s *Server) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	defer func() { _ = w.Flush() }()

	for {
		var req Request
		line, err := ReadOneLine(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("connection closed", slog.Any("error", err))
			}
			return
		}

		if err := json.Unmarshal(line, &req); err != nil {
			_ = WriteOneLine(w, Response{
				JSONRPC: "2.0",
				ID:      json.RawMessage("null"),
				Error:   &ErrorObject{Code: codeParse, Message: "parse error"},
			})
			_ = w.Flush()
			continue
		}

		if len(req.ID) == 0 {
			// Notification: no response.
			_ = s.dispatch(req)
			continue
		}

		resp := s.dispatch(req)
		_ = WriteOneLine(w, resp)
		_ = w.Flush()
	}
}

// decode unmarshals optional params and checks the workspace id when the
// method needs one.
func decode(req Request, p any, needWorkspace func() string) *ErrorObject {
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, p); err != nil {
			return &ErrorObject{Code: codeInvalidParams, Message: "invalid params"}
		}
	}
	if needWorkspace != nil && strings.TrimSpace(needWorkspace()) == "" {
		return &ErrorObject{Code: codeInvalidParams, Message: "workspace_id is required"}
	}
	return nil
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		resp.Error = &ErrorObject{Code: codeInvalidRequest, Message: "invalid jsonrpc version"}
		return resp
	}

	var (
		result any
		err    error
		perr   *ErrorObject
	)

	switch req.Method {
	case "ping":
		result = "pong"
	case "version":
		result = version.String()
	case "workspace.add":
		var p WorkspaceAddParams
		if perr = decode(req, &p, nil); perr == nil {
			result, err = s.h.WorkspaceAdd(p)
		}
	case "scan.refresh":
		var p WorkspaceParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			result, err = s.h.ScanRefresh(s.ctx, p)
		}
	case "scan.file":
		var p ScanFileParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			if strings.TrimSpace(p.Path) == "" {
				perr = &ErrorObject{Code: codeInvalidParams, Message: "path is required"}
				break
			}
			result, err = s.h.ScanFile(s.ctx, p)
		}
	case "groups":
		var p WorkspaceParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			result, err = s.h.Groups(p)
		}
	case "items":
		var p ItemsParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			result, err = s.h.Items(p)
		}
	case "open":
		var p OpenParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			if strings.TrimSpace(p.File) == "" || p.Line < 1 {
				perr = &ErrorObject{Code: codeInvalidParams, Message: "file and line >= 1 are required"}
				break
			}
			result, err = s.h.Open(p)
		}
	case "search":
		var p SearchParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			if strings.TrimSpace(p.Text) == "" {
				perr = &ErrorObject{Code: codeInvalidParams, Message: "text is required"}
				break
			}
			result, err = s.h.Search(p)
		}
	case "watch.start":
		var p WatchStartParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			result, err = s.h.WatchStart(p)
		}
	case "watch.stop":
		var p WorkspaceParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			result, err = s.h.WatchStop(p)
		}
	case "watch.status":
		var p WorkspaceParams
		if perr = decode(req, &p, func() string { return p.WorkspaceID }); perr == nil {
			result, err = s.h.WatchStatus(p)
		}
	default:
		perr = &ErrorObject{Code: codeNoMethod, Message: "method not found"}
	}

	switch {
	case perr != nil:
		resp.Error = perr
	case err != nil:
		s.log.Debug("request failed", slog.String("method", req.Method), slog.Any("error", err))
		resp.Error = &ErrorObject{Code: codeHandler, Message: err.Error()}
	default:
		resp.Result = result
	}
	return resp
}
