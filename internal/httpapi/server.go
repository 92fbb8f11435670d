// Package httpapi provides the optional HTTP API for enforcerd.
//
// The MCP stdio transport is the primary surface; this server exists for
// health probes, Prometheus scraping, and direct enforcement requests from
// CI jobs that do not speak MCP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/coordinator"
	"github.com/fyrsmithlabs/enforcerd/internal/registry"
	"github.com/fyrsmithlabs/enforcerd/internal/sanitize"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// Server provides HTTP endpoints for enforcerd.
type Server struct {
	echo    *echo.Echo
	coord   *coordinator.Coordinator
	reg     *registry.Registry
	metrics *Metrics
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Addr           string
	ProjectRoot    string
	MaxPerSeverity int
}

// NewServer creates the HTTP server.
func NewServer(coord *coordinator.Coordinator, reg *registry.Registry, logger *zap.Logger, cfg *Config) (*Server, error) {
	if coord == nil {
		return nil, fmt.Errorf("coordinator cannot be nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = "localhost:9090"
	}
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root is required")
	}
	if cfg.MaxPerSeverity <= 0 {
		cfg.MaxPerSeverity = violation.DefaultMaxPerSeverity
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := NewMetrics(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		coord:   coord,
		reg:     reg,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/enforce", s.handleEnforce)
	v1.GET("/agents", s.handleAgents)
}

// EnforceRequest is the request body for POST /api/v1/enforce.
type EnforceRequest struct {
	FilePath         string `json:"file_path"`
	Code             string `json:"code"`
	LimitPerSeverity int    `json:"limit_per_severity,omitempty"`
}

// EnforceResponse is the response body for POST /api/v1/enforce.
type EnforceResponse struct {
	FilePath       string                     `json:"file_path"`
	RunID          string                     `json:"run_id"`
	AgentsExecuted int                        `json:"agents_executed"`
	Statistics     violation.Summary          `json:"statistics"`
	Filtered       violation.FilterMetadata   `json:"filtered"`
	Violations     []violation.Violation      `json:"violations"`
	Failures       []coordinator.AgentFailure `json:"failures,omitempty"`
}

// AgentsResponse is the response body for GET /api/v1/agents.
type AgentsResponse struct {
	Agents []AgentDescriptor `json:"agents"`
	Count  int               `json:"count"`
}

// AgentDescriptor describes one registered agent.
type AgentDescriptor struct {
	Name                string   `json:"name"`
	DisplayName         string   `json:"display_name"`
	Description         string   `json:"description"`
	SupportedExtensions []string `json:"supported_extensions"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleEnforce(c echo.Context) error {
	var req EnforceRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid enforce request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.FilePath == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "file_path field is required")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code field is required")
	}

	validPath, err := sanitize.ValidatePath(req.FilePath, s.config.ProjectRoot)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid file_path: %v", err))
	}

	limit := req.LimitPerSeverity
	if limit <= 0 {
		limit = s.config.MaxPerSeverity
	}

	batch, err := s.coord.Run(c.Request().Context(), validPath, req.Code, nil)
	if err != nil {
		s.logger.Error("enforcement run failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "enforcement run failed")
	}

	filtered := violation.Filter(batch.Violations, limit)
	s.metrics.RecordEnforcement(len(batch.Violations), len(batch.Failures))

	return c.JSON(http.StatusOK, EnforceResponse{
		FilePath:       validPath,
		RunID:          batch.RunID,
		AgentsExecuted: batch.AgentsExecuted,
		Statistics:     violation.Stats(batch.Violations),
		Filtered:       filtered.Metadata,
		Violations:     filtered.Violations,
		Failures:       batch.Failures,
	})
}

func (s *Server) handleAgents(c echo.Context) error {
	catalog := s.reg.Discover()
	resp := AgentsResponse{
		Agents: make([]AgentDescriptor, 0, len(catalog)),
		Count:  len(catalog),
	}
	for _, md := range catalog {
		resp.Agents = append(resp.Agents, AgentDescriptor{
			Name:                md.Name,
			DisplayName:         md.DisplayName,
			Description:         md.Description,
			SupportedExtensions: md.SupportedExtensions,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Echo exposes the underlying router for route additions in main.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server and blocks.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.config.Addr))
	return s.echo.Start(s.config.Addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
