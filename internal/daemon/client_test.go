package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSocketPath(t *testing.T) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), fmt.Sprintf("mysearchbuddy-client-test-%d.sock", time.Now().UnixNano()))
	return socketPath
}

func TestNewClient(t *testing.T) {
	cfg := ClientConfig{SocketPath: "/tmp/x.sock", Timeout: 5 * time.Second}
	client := NewClient(cfg)
	assert.Equal(t, cfg.SocketPath, client.socketPath)
	assert.Equal(t, cfg.Timeout, client.timeout)
}

func TestClient_IsRunning_NoSocket(t *testing.T) {
	client := NewClient(ClientConfig{SocketPath: filepath.Join(t.TempDir(), "nonexistent.sock"), Timeout: time.Second})
	assert.False(t, client.IsRunning())
}

func TestClient_IsRunning_WithSocket(t *testing.T) {
	socketPath := testSocketPath(t)
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer listener.Close()

	client := NewClient(ClientConfig{SocketPath: socketPath, Timeout: 5 * time.Second})
	assert.True(t, client.IsRunning())
}

func mockOnce(t *testing.T, socketPath string, respond func(req Request) Response) {
	t.Helper()
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	go func() {
		defer listener.Close()
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var req Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			return
		}
		_ = json.NewEncoder(conn).Encode(respond(req))
	}()
}

func TestClient_Ping_Success(t *testing.T) {
	socketPath := testSocketPath(t)
	mockOnce(t, socketPath, func(req Request) Response {
		return NewSuccessResponse(req.ID, PingResult{Pong: true})
	})

	client := NewClient(ClientConfig{SocketPath: socketPath, Timeout: 5 * time.Second})
	require.NoError(t, client.Ping(context.Background()))
}

func TestClient_Search_Success(t *testing.T) {
	socketPath := testSocketPath(t)
	expected := []SearchResult{{Path: "/test.go", Name: "test.go", MtimeS: 100, Size: 5, Score: 0.95}}
	mockOnce(t, socketPath, func(req Request) Response {
		return NewSuccessResponse(req.ID, expected)
	})

	client := NewClient(ClientConfig{SocketPath: socketPath, Timeout: 5 * time.Second})
	results, err := client.Search(context.Background(), SearchParams{Q: "test", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/test.go", results[0].Path)
	assert.InDelta(t, 0.95, results[0].Score, 0.001)
}

func TestClient_Search_Error(t *testing.T) {
	socketPath := testSocketPath(t)
	mockOnce(t, socketPath, func(req Request) Response {
		return NewErrorResponse(req.ID, ErrCodeIndexNotInitialized, "index not initialized")
	})

	client := NewClient(ClientConfig{SocketPath: socketPath, Timeout: 5 * time.Second})
	_, err := client.Search(context.Background(), SearchParams{Q: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index not initialized")
}

func TestClient_Status_Success(t *testing.T) {
	socketPath := testSocketPath(t)
	expected := StatusResult{Running: true, PID: 12345, Uptime: "5m", CrawlPhase: "idle"}
	mockOnce(t, socketPath, func(req Request) Response {
		return NewSuccessResponse(req.ID, expected)
	})

	client := NewClient(ClientConfig{SocketPath: socketPath, Timeout: 5 * time.Second})
	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, 12345, status.PID)
}

func TestClient_Connect_Timeout(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "nonexistent.sock")
	client := NewClient(ClientConfig{SocketPath: socketPath, Timeout: 100 * time.Millisecond})
	_, err := client.Connect()
	require.Error(t, err)
	_ = os.Remove(socketPath)
}
