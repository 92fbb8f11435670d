package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/httpapi"
	mcpserver "github.com/fyrsmithlabs/enforcerd/internal/mcp"
	"github.com/fyrsmithlabs/enforcerd/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enforcement daemon",
	Long: `Start enforcerd on the MCP stdio transport. Logs go to stderr; stdout
belongs to the MCP protocol. The HTTP API starts alongside when enabled in
configuration.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting enforcerd",
		zap.String("version", version),
		zap.String("project_root", cfg.Enforcement.ProjectRoot),
		zap.Bool("http_enabled", cfg.Server.HTTPEnabled))

	tel, err := telemetry.New(ctx, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	reg, coord, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	srv, err := mcpserver.NewServer(&mcpserver.Config{
		Name:           "enforcerd",
		Version:        version,
		ProjectRoot:    cfg.Enforcement.ProjectRoot,
		MaxPerSeverity: cfg.Enforcement.MaxPerSeverity,
		Logger:         logger,
	}, coord, reg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.Server.HTTPEnabled {
		httpSrv, err := httpapi.NewServer(coord, reg, logger, &httpapi.Config{
			Addr:           cfg.Server.HTTPAddr,
			ProjectRoot:    cfg.Enforcement.ProjectRoot,
			MaxPerSeverity: cfg.Enforcement.MaxPerSeverity,
		})
		if err != nil {
			return fmt.Errorf("failed to create HTTP server: %w", err)
		}

		go func() {
			if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http server shutdown failed", zap.Error(err))
			}
		}()
	}

	// Blocks until the client disconnects or a signal cancels the context.
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("enforcerd shutdown complete")
	return nil
}
