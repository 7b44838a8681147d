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

	"github.com/DrDavidL/my-search-buddy/pkg/indexer"
)

func serverTestSocketPath(t *testing.T) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), fmt.Sprintf("mysearchbuddy-test-%d.sock", time.Now().UnixNano()))
	return socketPath
}

func roundTrip(t *testing.T, socketPath string, req Request) Response {
	t.Helper()
	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, json.NewEncoder(conn).Encode(req))
	var resp Response
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	return resp
}

func TestServer_ListenAndServe_CreatesAndCleansUpSocket(t *testing.T) {
	socketPath := serverTestSocketPath(t)
	srv := NewServer(socketPath, &Backend{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	_, err := os.Stat(socketPath)
	require.NoError(t, err)

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	time.Sleep(50 * time.Millisecond)
	_, err = os.Stat(socketPath)
	assert.True(t, os.IsNotExist(err))
}

func TestServer_HandlePing(t *testing.T) {
	socketPath := serverTestSocketPath(t)
	srv := NewServer(socketPath, &Backend{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodPing, ID: "1"})
	assert.Nil(t, resp.Error)
	assert.Equal(t, "1", resp.ID)
}

func TestServer_HandleUnknownMethod(t *testing.T) {
	socketPath := serverTestSocketPath(t)
	srv := NewServer(socketPath, &Backend{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: "bogus", ID: "2"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
}

func TestServer_HandleStatus_NoPipeline(t *testing.T) {
	socketPath := serverTestSocketPath(t)
	srv := NewServer(socketPath, &Backend{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodStatus, ID: "3"})
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Result)
}

func TestServer_HandleSearch_InvalidParams(t *testing.T) {
	socketPath := serverTestSocketPath(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewServer(socketPath, &Backend{}).ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodSearch, Params: SearchParams{Q: ""}, ID: "4"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidParams, resp.Error.Code)
}

func TestServer_AddOrUpdateThenCommit_UpdatesDedupCache(t *testing.T) {
	ix, err := indexer.InitIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	socketPath := serverTestSocketPath(t)
	srv := NewServer(socketPath, &Backend{Indexer: ix})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)

	meta := ShouldReindexParams{Path: "/x/notes.txt", Name: "notes.txt", Ext: "txt", MtimeS: 100, Size: 42}

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodAddOrUpdate, Params: AddOrUpdateParams{Meta: meta, Content: "draft"}, ID: "1"})
	require.Nil(t, resp.Error)

	resp = roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodCommit, ID: "2"})
	require.Nil(t, resp.Error)

	resp = roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodShouldReindex, Params: meta, ID: "3"})
	require.Nil(t, resp.Error)
	needsReindex, err := decodeResult[bool](&resp)
	require.NoError(t, err)
	assert.False(t, needsReindex, "should_reindex must report false for a path just committed over the socket")
}
