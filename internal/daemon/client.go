package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// ClientConfig configures a Client's connection to the daemon socket.
type ClientConfig struct {
	SocketPath string
	Timeout    time.Duration
}

// Client talks JSON-RPC 2.0 to a Server over its Unix socket.
type Client struct {
	socketPath string
	timeout    time.Duration
	requestID  atomic.Uint64
}

// NewClient builds a client bound to cfg.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{socketPath: cfg.SocketPath, timeout: timeout}
}

// Connect dials the daemon socket.
func (c *Client) Connect() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return conn, nil
}

// IsRunning reports whether the daemon is accepting connections.
func (c *Client) IsRunning() bool {
	conn, err := c.Connect()
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (c *Client) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}

func (c *Client) call(ctx context.Context, method string, params any) (*Response, error) {
	conn, err := c.Connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(c.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	req := Request{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID()}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to receive response: %w", err)
	}
	return &resp, nil
}

func decodeResult[T any](resp *Response) (T, error) {
	var out T
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return out, fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode result: %w", err)
	}
	return out, nil
}

// Ping checks that the daemon is responsive.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.call(ctx, MethodPing, nil)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("ping failed: %s", resp.Error.Message)
	}
	return nil
}

// Search sends a search request over the wire.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	resp, err := c.call(ctx, MethodSearch, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("search failed: %s (code: %d)", resp.Error.Message, resp.Error.Code)
	}
	return decodeResult[[]SearchResult](resp)
}

// Status retrieves daemon and crawl status.
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	resp, err := c.call(ctx, MethodStatus, nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("status failed: %s", resp.Error.Message)
	}
	status, err := decodeResult[StatusResult](resp)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// ShouldReindex asks the daemon whether params' fingerprint requires
// reindexing.
func (c *Client) ShouldReindex(ctx context.Context, params ShouldReindexParams) (bool, error) {
	resp, err := c.call(ctx, MethodShouldReindex, params)
	if err != nil {
		return false, err
	}
	if resp.Error != nil {
		return false, fmt.Errorf("should_reindex failed: %s", resp.Error.Message)
	}
	return decodeResult[bool](resp)
}

// AddOrUpdate stages a write for params.Meta over the daemon socket.
// The write is not visible to search or reflected in should_reindex
// until CommitAndRefresh is called.
func (c *Client) AddOrUpdate(ctx context.Context, params AddOrUpdateParams) error {
	resp, err := c.call(ctx, MethodAddOrUpdate, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("add_or_update failed: %s", resp.Error.Message)
	}
	return nil
}

// CommitAndRefresh flushes every write staged on the daemon by any
// client's AddOrUpdate since the daemon's last commit.
func (c *Client) CommitAndRefresh(ctx context.Context) error {
	resp, err := c.call(ctx, MethodCommit, nil)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("commit_and_refresh failed: %s", resp.Error.Message)
	}
	return nil
}

// StartCrawl kicks off a crawl on the daemon.
func (c *Client) StartCrawl(ctx context.Context, params StartCrawlParams) error {
	resp, err := c.call(ctx, MethodStartCrawl, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("start_crawl failed: %s", resp.Error.Message)
	}
	return nil
}

// CancelCrawl requests cooperative cancellation of any running crawl.
func (c *Client) CancelCrawl(ctx context.Context) error {
	resp, err := c.call(ctx, MethodCancelCrawl, nil)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("cancel_crawl failed: %s", resp.Error.Message)
	}
	return nil
}

// ResetAndStart wipes the index and dedup state, then starts a full crawl.
func (c *Client) ResetAndStart(ctx context.Context, params StartCrawlParams) error {
	resp, err := c.call(ctx, MethodResetAndStart, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("reset_and_start failed: %s", resp.Error.Message)
	}
	return nil
}

func (c *Client) nextID() string {
	return fmt.Sprintf("req-%d", c.requestID.Add(1))
}
