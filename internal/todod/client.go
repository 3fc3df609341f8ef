package todod

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"todotrack/internal/core/tracker"
	"todotrack/internal/model"
)

type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error (%d): %s", e.Code, e.Message) }

// Client speaks to a running daemon over one connection. Calls are
// serialized.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
	nextID int64
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

func (c *Client) call(method string, params any, out any) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("client is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := Request{JSONRPC: "2.0", Method: method, ID: json.RawMessage(strconv.FormatInt(c.nextID, 10))}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = b
	}

	if err := WriteOneLine(c.w, req); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}

	line, err := ReadOneLine(c.r)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	var resp rawResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if string(resp.ID) != string(req.ID) {
		return fmt.Errorf("%s: response id %s does not match request id %s", method, resp.ID, req.ID)
	}
	if resp.Error != nil {
		return &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

// invoke runs one call and decodes its result into a T.
func invoke[T any](c *Client, method string, params any) (T, error) {
	var out T
	err := c.call(method, params, &out)
	return out, err
}

func (c *Client) Ping() error {
	out, err := invoke[string](c, "ping", nil)
	if err != nil {
		return err
	}
	if out != "pong" {
		return fmt.Errorf("unexpected ping result: %q", out)
	}
	return nil
}

func (c *Client) Version() (string, error) {
	return invoke[string](c, "version", nil)
}

// WorkspaceAdd registers a project root and returns its workspace id.
func (c *Client) WorkspaceAdd(p WorkspaceAddParams) (string, error) {
	return invoke[string](c, "workspace.add", p)
}

func (c *Client) ScanRefresh(workspaceID string) (RefreshResult, error) {
	return invoke[RefreshResult](c, "scan.refresh", WorkspaceParams{WorkspaceID: workspaceID})
}

func (c *Client) ScanFile(workspaceID, path string) (ScanFileResult, error) {
	return invoke[ScanFileResult](c, "scan.file", ScanFileParams{WorkspaceID: workspaceID, Path: path})
}

func (c *Client) Groups(workspaceID string) (tracker.GroupsView, error) {
	return invoke[tracker.GroupsView](c, "groups", WorkspaceParams{WorkspaceID: workspaceID})
}

func (c *Client) Items(p ItemsParams) ([]model.Item, error) {
	return invoke[[]model.Item](c, "items", p)
}

func (c *Client) Open(p OpenParams) (model.Location, error) {
	return invoke[model.Location](c, "open", p)
}

func (c *Client) Search(p SearchParams) ([]model.Item, error) {
	return invoke[[]model.Item](c, "search", p)
}

func (c *Client) WatchStart(p WatchStartParams) (WatchStatusResult, error) {
	return invoke[WatchStatusResult](c, "watch.start", p)
}

func (c *Client) WatchStop(workspaceID string) (WatchStatusResult, error) {
	return invoke[WatchStatusResult](c, "watch.stop", WorkspaceParams{WorkspaceID: workspaceID})
}

func (c *Client) WatchStatus(workspaceID string) (WatchStatusResult, error) {
	return invoke[WatchStatusResult](c, "watch.status", WorkspaceParams{WorkspaceID: workspaceID})
}
