// Package config provides configuration loading for enforcerd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables, with hardcoded defaults filling the gaps.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/enforcerd/internal/logging"
)

// Config holds the complete enforcerd configuration.
type Config struct {
	Logging     logging.Config    `koanf:"logging"`
	Server      ServerConfig      `koanf:"server"`
	Enforcement EnforcementConfig `koanf:"enforcement"`
	Tools       ToolsConfig       `koanf:"tools"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig holds the optional HTTP API configuration. The MCP stdio
// transport is always available and needs no configuration.
type ServerConfig struct {
	HTTPEnabled     bool          `koanf:"http_enabled"`
	HTTPAddr        string        `koanf:"http_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// EnforcementConfig holds pipeline behavior settings.
type EnforcementConfig struct {
	// ProjectRoot anchors path validation. Defaults to the working
	// directory at startup.
	ProjectRoot string `koanf:"project_root"`

	// MaxPerSeverity caps how many violations of each severity the
	// filtered output keeps.
	MaxPerSeverity int `koanf:"max_per_severity"`

	// CoverageThreshold is the minimum acceptable coverage percentage.
	CoverageThreshold int `koanf:"coverage_threshold"`

	// AgentTimeout bounds one agent's execution.
	AgentTimeout time.Duration `koanf:"agent_timeout"`

	// MaxConcurrentAgents bounds how many agents run at once per file.
	MaxConcurrentAgents int `koanf:"max_concurrent_agents"`
}

// ToolsConfig names the external analysis commands.
type ToolsConfig struct {
	// TypecheckCommand enables external type checker delegation when set.
	TypecheckCommand string `koanf:"typecheck_command"`

	// CoverageCommand is the coverage measurement tool.
	CoverageCommand string `koanf:"coverage_command"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"`
	Insecure    bool   `koanf:"insecure"`

	// TLSSkipVerify disables certificate verification for endpoints
	// behind internal CAs. Ignored when Insecure is set.
	TLSSkipVerify bool    `koanf:"tls_skip_verify"`
	SampleRate    float64 `koanf:"sample_rate"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if c.Server.HTTPEnabled && c.Server.HTTPAddr == "" {
		return errors.New("server http_addr required when the HTTP API is enabled")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server shutdown_timeout must be positive")
	}

	if c.Enforcement.MaxPerSeverity < 1 {
		return fmt.Errorf("enforcement max_per_severity must be at least 1, got %d", c.Enforcement.MaxPerSeverity)
	}
	if c.Enforcement.CoverageThreshold < 0 || c.Enforcement.CoverageThreshold > 100 {
		return fmt.Errorf("enforcement coverage_threshold must be 0-100, got %d", c.Enforcement.CoverageThreshold)
	}
	if c.Enforcement.AgentTimeout <= 0 {
		return errors.New("enforcement agent_timeout must be positive")
	}
	if c.Enforcement.MaxConcurrentAgents < 1 {
		return fmt.Errorf("enforcement max_concurrent_agents must be at least 1, got %d", c.Enforcement.MaxConcurrentAgents)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.ServiceName == "" {
			return errors.New("telemetry service_name required when telemetry is enabled")
		}
		switch c.Telemetry.Protocol {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry protocol must be grpc or http, got %q", c.Telemetry.Protocol)
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry sample_rate must be 0.0-1.0, got %g", c.Telemetry.SampleRate)
		}
	}

	return nil
}
