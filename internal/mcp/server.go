package mcp

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/schemaprobe/internal/config"
	"github.com/dshills/schemaprobe/internal/probe"
	"github.com/dshills/schemaprobe/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "schemaprobe"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	cfg     *config.Config
	client  *storage.Client
	prober  *probe.Probe
	history *lru.Cache[string, *probe.Report]
	lock    ProbeLock
	log     logr.Logger
}

// NewServer connects to the configured database and creates a new MCP
// server instance
func NewServer(ctx context.Context, cfg *config.Config, logger logr.Logger) (*Server, error) {
	client, err := storage.Open(ctx, cfg.StorageConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	history, err := lru.New[string, *probe.Report](cfg.HistorySize)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create report history: %w", err)
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		cfg:     cfg,
		client:  client,
		prober:  probe.New(client, logger),
		history: history,
		log:     logger.WithName("mcp"),
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the database client
func (s *Server) Close() error {
	return s.client.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(runProbeTool(), s.handleRunProbe)
	s.mcp.AddTool(getReportTool(), s.handleGetReport)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
