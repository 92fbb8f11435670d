package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/enforcerd/internal/coordinator"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

const (
	// envPrefix namespaces enforcerd's environment variables.
	envPrefix = "ENFORCERD_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load reads configuration from a YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (ENFORCERD_SERVER_HTTP_ADDR, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// When configPath is empty the default path is used:
// ~/.config/enforcerd/config.yaml. A missing file is not an error; the
// defaults and environment carry the configuration.
//
// Environment variables map to config keys by stripping the prefix,
// lowercasing, and splitting on the first underscore:
//
//	ENFORCERD_SERVER_HTTP_ADDR      -> server.http_addr
//	ENFORCERD_ENFORCEMENT_AGENT_TIMEOUT -> enforcement.agent_timeout
//	ENFORCERD_LOGGING_LEVEL         -> logging.level
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "enforcerd", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		// Open once and validate through the file descriptor to avoid
		// a TOCTOU race between stat and read.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envTransform maps ENFORCERD_SECTION_FIELD_NAME to section.field_name.
// The first underscore after the prefix separates the section; the rest of
// the underscores belong to the field name.
func envTransform(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// validateConfigFileProperties checks file permissions and size on an
// already-opened file descriptor.
func validateConfigFileProperties(info os.FileInfo) error {
	// Windows has a different permission model; skip the check there.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm&0o077 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or stricter)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}

// applyDefaults fills missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "enforcerd"}
	}

	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = "localhost:9090"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Enforcement.ProjectRoot == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.Enforcement.ProjectRoot = wd
		}
	}
	if cfg.Enforcement.MaxPerSeverity == 0 {
		cfg.Enforcement.MaxPerSeverity = violation.DefaultMaxPerSeverity
	}
	if cfg.Enforcement.CoverageThreshold == 0 {
		cfg.Enforcement.CoverageThreshold = 80
	}
	if cfg.Enforcement.AgentTimeout == 0 {
		cfg.Enforcement.AgentTimeout = coordinator.DefaultAgentTimeout
	}
	if cfg.Enforcement.MaxConcurrentAgents == 0 {
		cfg.Enforcement.MaxConcurrentAgents = coordinator.DefaultConcurrency
	}

	if cfg.Tools.CoverageCommand == "" {
		cfg.Tools.CoverageCommand = "coverage"
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "enforcerd"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}
}
