package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/handler"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultListLimit caps list_sessions when the caller passes no limit.
const DefaultListLimit = 100

// ErrNoAdmin is returned when the manager runs a custom handler that cannot
// enumerate sessions.
var ErrNoAdmin = errors.New("session handler does not support inspection")

// Manager is the part of *stash.Manager the MCP server exposes.
type Manager interface {
	Name() string
	Sessions() (*handler.Handler, bool)
	CollectGarbage(ctx context.Context) (ports.GCReport, error)
	Redact(attrs map[string]any) map[string]any
}

var _ Manager = (*stash.Manager)(nil)

// SessionList is the result of list_sessions.
type SessionList struct {
	Namespace string            `json:"namespace" jsonschema_description:"Session namespace"`
	Sessions  []handler.Session `json:"sessions" jsonschema_description:"Stored sessions, expired ones included"`
}

// DestroyResult is the result of destroy_session.
type DestroyResult struct {
	ID        string `json:"id"`
	Destroyed bool   `json:"destroyed"`
}

type listArgs struct {
	Limit int `json:"limit"`
}

type idArgs struct {
	ID string `json:"id"`
}

// Server exposes session administration as MCP tools.
type Server struct {
	manager   Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(m Manager, opts ...Option) *Server {
	s := &Server{
		manager:   m,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("stash-mcp", strings.TrimSpace(stash.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP endpoints over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List stored sessions of the namespace with their last activity and expiry."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return (default 100)")),
		mcp.WithOutputSchema[SessionList](),
	), mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("inspect_session",
		mcp.WithDescription("Show the attributes stored for one session."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session ID (40 alphanumeric characters)")),
		mcp.WithOutputSchema[handler.Session](),
	), mcp.NewStructuredToolHandler(s.handleInspect))

	s.mcpServer.AddTool(mcp.NewTool("destroy_session",
		mcp.WithDescription("Delete a stored session."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[DestroyResult](),
	), mcp.NewStructuredToolHandler(s.handleDestroy))

	s.mcpServer.AddTool(mcp.NewTool("collect_garbage",
		mcp.WithDescription("Run one garbage collection sweep and report what was removed."),
		mcp.WithOutputSchema[ports.GCReport](),
	), mcp.NewStructuredToolHandler(s.handleCollect))
}

func (s *Server) admin() (*handler.Handler, error) {
	h, ok := s.manager.Sessions()
	if !ok {
		return nil, ErrNoAdmin
	}
	return h, nil
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest, args listArgs) (SessionList, error) {
	h, err := s.admin()
	if err != nil {
		return SessionList{}, err
	}
	limit := args.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	sessions, err := h.List(ctx, limit)
	if err != nil {
		return SessionList{}, fmt.Errorf("list failed: %w", err)
	}
	if sessions == nil {
		sessions = []handler.Session{}
	}
	for i := range sessions {
		sessions[i].Attributes = s.manager.Redact(sessions[i].Attributes)
	}
	return SessionList{Namespace: s.manager.Name(), Sessions: sessions}, nil
}

func (s *Server) handleInspect(ctx context.Context, _ mcp.CallToolRequest, args idArgs) (handler.Session, error) {
	h, err := s.admin()
	if err != nil {
		return handler.Session{}, err
	}
	sess, err := h.Inspect(ctx, args.ID)
	if err != nil {
		return handler.Session{}, fmt.Errorf("inspect failed: %w", err)
	}
	sess.Attributes = s.manager.Redact(sess.Attributes)
	return sess, nil
}

func (s *Server) handleDestroy(ctx context.Context, _ mcp.CallToolRequest, args idArgs) (DestroyResult, error) {
	h, err := s.admin()
	if err != nil {
		return DestroyResult{}, err
	}
	if args.ID == "" {
		return DestroyResult{}, errors.New("id is required")
	}
	if err := h.Destroy(ctx, args.ID); err != nil {
		s.logger.Error("MCP destroy_session failed", "id", args.ID, "err", err)
		return DestroyResult{}, fmt.Errorf("destroy failed: %w", err)
	}
	return DestroyResult{ID: args.ID, Destroyed: true}, nil
}

func (s *Server) handleCollect(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (ports.GCReport, error) {
	report, err := s.manager.CollectGarbage(ctx)
	if err != nil {
		return report, fmt.Errorf("gc failed: %w", err)
	}
	return report, nil
}
