package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes a YAML config with owner-only permissions.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "localhost:9090", cfg.Server.HTTPAddr)
	assert.False(t, cfg.Server.HTTPEnabled)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10, cfg.Enforcement.MaxPerSeverity)
	assert.Equal(t, 80, cfg.Enforcement.CoverageThreshold)
	assert.Equal(t, 15*time.Second, cfg.Enforcement.AgentTimeout)
	assert.Equal(t, 4, cfg.Enforcement.MaxConcurrentAgents)
	assert.NotEmpty(t, cfg.Enforcement.ProjectRoot)
	assert.Equal(t, "coverage", cfg.Tools.CoverageCommand)
	assert.Empty(t, cfg.Tools.TypecheckCommand)
	assert.Equal(t, "enforcerd", cfg.Telemetry.ServiceName)
	assert.Equal(t, "grpc", cfg.Telemetry.Protocol)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: console
server:
  http_enabled: true
  http_addr: "127.0.0.1:8088"
enforcement:
  project_root: /workspace/project
  max_per_severity: 25
  coverage_threshold: 90
  agent_timeout: 30s
tools:
  typecheck_command: mypy
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Server.HTTPEnabled)
	assert.Equal(t, "127.0.0.1:8088", cfg.Server.HTTPAddr)
	assert.Equal(t, "/workspace/project", cfg.Enforcement.ProjectRoot)
	assert.Equal(t, 25, cfg.Enforcement.MaxPerSeverity)
	assert.Equal(t, 90, cfg.Enforcement.CoverageThreshold)
	assert.Equal(t, 30*time.Second, cfg.Enforcement.AgentTimeout)
	assert.Equal(t, "mypy", cfg.Tools.TypecheckCommand)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
enforcement:
  max_per_severity: 25
`)

	t.Setenv("ENFORCERD_LOGGING_LEVEL", "warn")
	t.Setenv("ENFORCERD_ENFORCEMENT_MAX_PER_SEVERITY", "5")
	t.Setenv("ENFORCERD_TOOLS_COVERAGE_COMMAND", "coverage3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Enforcement.MaxPerSeverity)
	assert.Equal(t, "coverage3", cfg.Tools.CoverageCommand)
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ENFORCERD_SERVER_HTTP_ADDR", "server.http_addr"},
		{"ENFORCERD_LOGGING_LEVEL", "logging.level"},
		{"ENFORCERD_ENFORCEMENT_AGENT_TIMEOUT", "enforcement.agent_timeout"},
		{"ENFORCERD_TELEMETRY_SAMPLE_RATE", "telemetry.sample_rate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envTransform(tt.in))
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestRejectsWorldReadableFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestRejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "logging: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		var cfg Config
		applyDefaults(&cfg)
		return &cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging"},
		{"zero per-severity cap", func(c *Config) { c.Enforcement.MaxPerSeverity = 0 }, "max_per_severity"},
		{"threshold above 100", func(c *Config) { c.Enforcement.CoverageThreshold = 120 }, "coverage_threshold"},
		{"non-positive timeout", func(c *Config) { c.Enforcement.AgentTimeout = 0 }, "agent_timeout"},
		{"http enabled without addr", func(c *Config) {
			c.Server.HTTPEnabled = true
			c.Server.HTTPAddr = ""
		}, "http_addr"},
		{"bad telemetry protocol", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Protocol = "udp"
		}, "protocol"},
		{"sample rate out of range", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.SampleRate = 2.0
		}, "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
