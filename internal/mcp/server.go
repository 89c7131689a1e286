package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/spike/internal/logging"
	"github.com/nvandessel/spike/internal/ratelimit"
	"github.com/nvandessel/spike/internal/session"
)

// Server wraps the MCP SDK server and exposes a session as tools.
type Server struct {
	server       *sdk.Server
	sess         *session.Session
	toolLimiters ratelimit.ToolLimiters
	logger       *slog.Logger
	audit        *logging.Journal
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "spike")
	Version string // Server version

	// Session is the simulation to expose. A fresh default session is
	// created when nil.
	Session *session.Session

	Logger  *slog.Logger
	Journal *logging.Journal
}

// NewServer creates a new MCP server with spike tools.
func NewServer(cfg *Config) (*Server, error) {
	sess := cfg.Session
	if sess == nil {
		sess = session.New(session.Options{Logger: cfg.Logger, Journal: cfg.Journal})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		sess:         sess,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
		audit:        cfg.Journal,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Session returns the simulation the server drives.
func (s *Server) Session() *session.Session {
	return s.sess
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.sess.Stop()
	return err
}
