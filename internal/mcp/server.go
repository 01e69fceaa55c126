package mcp

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/richinsley/netlogolink"
	"github.com/richinsley/netlogolink/internal/journal"
	"github.com/richinsley/netlogolink/internal/logging"
)

// Server wraps the MCP SDK server around one engine workspace.
type Server struct {
	server  *sdk.Server
	sim     netlogolink.Simulator
	journal *journal.Journal
	session string
	logger  *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "netlogolink")
	Version string // Server version

	// Journal, when set, backs the netlogo_journal tool.
	Journal *journal.Journal

	// Session limits netlogo_journal to one run's entries.
	Session string

	Logger *slog.Logger
}

// NewServer creates a new MCP server whose tools drive sim.
func NewServer(cfg *Config, sim netlogolink.Simulator) (*Server, error) {
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
		server:  mcpServer,
		sim:     sim,
		journal: cfg.Journal,
		session: cfg.Session,
		logger:  logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects, ctx is cancelled or
// the process is interrupted.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}
