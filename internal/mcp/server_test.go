package mcp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/coordinator"
	"github.com/fyrsmithlabs/enforcerd/internal/registry"
)

func newPipeline(t *testing.T) (*coordinator.Coordinator, *registry.Registry) {
	t.Helper()
	logger := zap.NewNop()
	reg, err := registry.Default(nil, registry.ToolConfig{}, logger)
	require.NoError(t, err)
	return coordinator.New(reg, logger), reg
}

func TestNewServer(t *testing.T) {
	coord, reg := newPipeline(t)

	t.Run("successful creation", func(t *testing.T) {
		cfg := &Config{
			Name:        "test-server",
			Version:     "1.0.0",
			ProjectRoot: t.TempDir(),
			Logger:      zap.NewNop(),
		}

		server, err := NewServer(cfg, coord, reg)
		require.NoError(t, err)
		require.NotNil(t, server)
		require.NotNil(t, server.mcp)
	})

	t.Run("missing coordinator", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ProjectRoot = t.TempDir()
		_, err := NewServer(cfg, nil, reg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "coordinator is required")
	})

	t.Run("missing registry", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ProjectRoot = t.TempDir()
		_, err := NewServer(cfg, coord, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "registry is required")
	})

	t.Run("missing project root", func(t *testing.T) {
		_, err := NewServer(DefaultConfig(), coord, reg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "project root is required")
	})

	t.Run("nil config rejected without root", func(t *testing.T) {
		_, err := NewServer(nil, coord, reg)
		require.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)
	require.Equal(t, "enforcerd", cfg.Name)
	require.Equal(t, "0.1.0", cfg.Version)
	require.Equal(t, 10, cfg.MaxPerSeverity)
	require.NotNil(t, cfg.Logger)
}
