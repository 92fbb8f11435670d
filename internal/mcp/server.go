// Package mcp exposes the enforcement pipeline as MCP tools over stdio.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and calls the coordinator and registry directly.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/coordinator"
	"github.com/fyrsmithlabs/enforcerd/internal/registry"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// Server exposes enforcement tools over an MCP transport.
type Server struct {
	mcp            *mcp.Server
	coord          *coordinator.Coordinator
	registry       *registry.Registry
	projectRoot    string
	maxPerSeverity int
	metrics        *Metrics
	logger         *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "enforcerd").
	Name string

	// Version is the server version (default: "0.1.0").
	Version string

	// ProjectRoot anchors file path validation for tool inputs.
	ProjectRoot string

	// MaxPerSeverity is the default per-severity cap on returned
	// violations, overridable per call.
	MaxPerSeverity int

	// Logger for structured logging.
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:           "enforcerd",
		Version:        "0.1.0",
		MaxPerSeverity: violation.DefaultMaxPerSeverity,
		Logger:         zap.NewNop(),
	}
}

// NewServer creates an MCP server over the given pipeline components.
func NewServer(cfg *Config, coord *coordinator.Coordinator, reg *registry.Registry) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if coord == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxPerSeverity <= 0 {
		cfg.MaxPerSeverity = violation.DefaultMaxPerSeverity
	}
	if cfg.Name == "" {
		cfg.Name = "enforcerd"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:            mcpServer,
		coord:          coord,
		registry:       reg,
		projectRoot:    cfg.ProjectRoot,
		maxPerSeverity: cfg.MaxPerSeverity,
		metrics:        NewMetrics(cfg.Logger),
		logger:         cfg.Logger,
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport and blocks until the
// context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
