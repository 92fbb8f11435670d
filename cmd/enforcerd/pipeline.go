package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/agent/coverage"
	"github.com/fyrsmithlabs/enforcerd/internal/config"
	"github.com/fyrsmithlabs/enforcerd/internal/coordinator"
	"github.com/fyrsmithlabs/enforcerd/internal/logging"
	"github.com/fyrsmithlabs/enforcerd/internal/registry"
	"github.com/fyrsmithlabs/enforcerd/internal/runner"
)

// loadConfig loads and validates configuration plus the logger built from it.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}

// buildPipeline wires the agent registry and coordinator from config.
func buildPipeline(cfg *config.Config, logger *zap.Logger) (*registry.Registry, *coordinator.Coordinator, error) {
	reg, err := registry.Default(runner.NewExecRunner(), registry.ToolConfig{
		TypecheckCommand: cfg.Tools.TypecheckCommand,
		CoverageCommand:  cfg.Tools.CoverageCommand,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build agent registry: %w", err)
	}

	coord := coordinator.New(reg, logger,
		coordinator.WithAgentTimeout(cfg.Enforcement.AgentTimeout),
		coordinator.WithConcurrency(cfg.Enforcement.MaxConcurrentAgents),
		coordinator.WithDefaultOptions(map[string]any{
			coverage.ThresholdOption: cfg.Enforcement.CoverageThreshold,
		}),
	)

	return reg, coord, nil
}
