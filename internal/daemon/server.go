package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/DrDavidL/my-search-buddy/internal/crawl"
	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
	"github.com/DrDavidL/my-search-buddy/internal/progress"
	"github.com/DrDavidL/my-search-buddy/pkg/indexer"
	"github.com/DrDavidL/my-search-buddy/pkg/searcher"
)

// Backend bundles the components a Server dispatches RPCs against.
type Backend struct {
	Indexer  *indexer.Indexer
	Searcher *searcher.Searcher
	Pipeline *crawl.Pipeline
}

// Server listens on a Unix socket and dispatches JSON-RPC requests
// against a Backend.
type Server struct {
	socketPath string
	listener   net.Listener
	backend    *Backend
	started    time.Time

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup

	pendingMu sync.Mutex
	pending   []docmodel.Meta
}

// NewServer creates a server bound to socketPath, dispatching against
// backend.
func NewServer(socketPath string, backend *Backend) *Server {
	return &Server{socketPath: socketPath, backend: backend}
}

// ListenAndServe starts the server and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.listener = listener
	s.started = time.Now()

	defer func() {
		_ = listener.Close()
		_ = os.Remove(s.socketPath)
	}()

	slog.Info("daemon_listening", slog.String("socket", s.socketPath))

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			shutdown := s.shutdown
			s.mu.Unlock()
			if shutdown {
				break
			}
			slog.Error("accept_failed", slog.String("error", err.Error()))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.wg.Wait()
	return ctx.Err()
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		slog.Warn("set_deadline_failed", slog.String("error", err.Error()))
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		_ = encoder.Encode(NewErrorResponse("", ErrCodeParseError, "failed to parse request"))
		return
	}

	_ = encoder.Encode(s.handleRequest(ctx, req))
}

func (s *Server) handleRequest(ctx context.Context, req Request) Response {
	switch req.Method {
	case MethodPing:
		return NewSuccessResponse(req.ID, PingResult{Pong: true})
	case MethodStatus:
		return NewSuccessResponse(req.ID, s.getStatus())
	case MethodSearch:
		return s.handleSearch(ctx, req)
	case MethodShouldReindex:
		return s.handleShouldReindex(req)
	case MethodAddOrUpdate:
		return s.handleAddOrUpdate(ctx, req)
	case MethodCommit:
		return s.handleCommit(ctx, req)
	case MethodStartCrawl:
		return s.handleStartCrawl(ctx, req)
	case MethodCancelCrawl:
		s.backend.Pipeline.Cancel()
		return NewSuccessResponse(req.ID, PingResult{Pong: true})
	case MethodResetAndStart:
		return s.handleResetAndStart(ctx, req)
	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func decodeParams[T any](req Request) (T, error) {
	var out T
	data, err := json.Marshal(req.Params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (s *Server) handleSearch(ctx context.Context, req Request) Response {
	params, err := decodeParams[SearchParams](req)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to decode params")
	}
	if err := params.Validate(); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	scope, ok := docmodel.ParseScope(params.Scope)
	if !ok {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "invalid scope")
	}

	res, err := s.backend.Searcher.Search(ctx, searcher.Query{Q: params.Q, Glob: params.Glob, Scope: scope, Limit: int32(params.Limit)})
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeSearchFailed, err.Error())
	}

	out := make([]SearchResult, len(res.Hits))
	for i, h := range res.Hits {
		out[i] = SearchResult{Path: h.Path, Name: h.Name, MtimeS: h.MtimeS, Size: h.Size, Score: h.Score}
	}
	return NewSuccessResponse(req.ID, out)
}

func (s *Server) handleShouldReindex(req Request) Response {
	params, err := decodeParams[ShouldReindexParams](req)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to decode params")
	}
	meta := docmodel.Meta{Path: params.Path, Name: params.Name, Ext: params.Ext, MtimeS: params.MtimeS, Size: params.Size, Inode: params.Inode, Dev: params.Dev}
	return NewSuccessResponse(req.ID, s.backend.Indexer.ShouldReindex(meta))
}

func (s *Server) handleAddOrUpdate(ctx context.Context, req Request) Response {
	params, err := decodeParams[AddOrUpdateParams](req)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to decode params")
	}
	m := params.Meta
	meta := docmodel.Meta{Path: m.Path, Name: m.Name, Ext: m.Ext, MtimeS: m.MtimeS, Size: m.Size, Inode: m.Inode, Dev: m.Dev}
	if err := s.backend.Indexer.AddOrUpdate(ctx, meta, params.Content); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, err.Error())
	}
	s.pendingMu.Lock()
	s.pending = append(s.pending, meta)
	s.pendingMu.Unlock()
	return NewSuccessResponse(req.ID, PingResult{Pong: true})
}

// handleCommit flushes staged writes and drains every meta staged by
// add_or_update since the last commit into the dedup cache, so
// should_reindex reflects writes made over this socket.
func (s *Server) handleCommit(ctx context.Context, req Request) Response {
	s.pendingMu.Lock()
	committed := s.pending
	s.pending = nil
	s.pendingMu.Unlock()

	if err := s.backend.Indexer.CommitAndRefresh(ctx, committed); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, err.Error())
	}
	return NewSuccessResponse(req.ID, PingResult{Pong: true})
}

func (s *Server) handleStartCrawl(ctx context.Context, req Request) Response {
	params, err := decodeParams[StartCrawlParams](req)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to decode params")
	}
	mode := crawl.ModeIncremental
	if params.Mode == "full" {
		mode = crawl.ModeFull
	}
	phase := progress.PhaseInitial
	if params.Phase == "background" {
		phase = progress.PhaseBackground
	}
	go func() {
		if err := s.backend.Pipeline.Start(context.Background(), params.Roots, mode, phase, params.Scheduled); err != nil {
			slog.Warn("crawl_start_failed", slog.String("error", err.Error()))
		}
	}()
	return NewSuccessResponse(req.ID, PingResult{Pong: true})
}

func (s *Server) handleResetAndStart(ctx context.Context, req Request) Response {
	params, err := decodeParams[StartCrawlParams](req)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to decode params")
	}
	go func() {
		if err := s.backend.Pipeline.ResetAndStart(context.Background(), params.Roots); err != nil {
			slog.Warn("reset_and_start_failed", slog.String("error", err.Error()))
		}
	}()
	return NewSuccessResponse(req.ID, PingResult{Pong: true})
}

func (s *Server) getStatus() StatusResult {
	st := StatusResult{
		Running: true,
		PID:     os.Getpid(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}
	if s.backend.Pipeline != nil {
		snap := s.backend.Pipeline.Progress().Snapshot()
		st.CrawlIsRunning = snap.IsRunning
		st.CrawlPhase = string(snap.Phase)
		st.StatusText = snap.StatusText
		st.FilesIndexed = snap.FilesIndexed
		if !snap.LastCompletedAt.IsZero() {
			st.LastCompletedAt = snap.LastCompletedAt.Format(time.RFC3339)
		}
	}
	if s.backend.Searcher != nil {
		telemetry := s.backend.Searcher.Telemetry()
		st.QueryCount = telemetry.Count
		st.QueryP95Millis = telemetry.P95Millis
	}
	return st
}

// Close stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
