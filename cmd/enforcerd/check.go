package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/enforcerd/internal/coordinator"
	"github.com/fyrsmithlabs/enforcerd/internal/sanitize"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

var checkLimit int

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Run all applicable agents against a file and print violations",
	Long: `Run a one-shot enforcement pass against a single file and print the
filtered result as JSON.

Exits non-zero when error-severity violations are found, so the command can
gate commits and CI stages.

Examples:
  # Check a file against the project root (current directory by default)
  enforcerd check src/main.py

  # Keep more findings per severity
  enforcerd check --limit 50 src/main.py`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntVar(&checkLimit, "limit", 0, "maximum violations per severity (0 uses the configured default)")
}

// checkReport is the JSON document printed by the check command.
type checkReport struct {
	FilePath       string                     `json:"file_path"`
	RunID          string                     `json:"run_id"`
	AgentsExecuted int                        `json:"agents_executed"`
	Statistics     violation.Summary          `json:"statistics"`
	Filtered       violation.FilterMetadata   `json:"filtered"`
	Violations     []violation.Violation      `json:"violations"`
	Failures       []coordinator.AgentFailure `json:"failures,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	validPath, err := sanitize.ValidatePath(args[0], cfg.Enforcement.ProjectRoot)
	if err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	code, err := os.ReadFile(validPath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	_, coord, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	batch, err := coord.Run(context.Background(), validPath, string(code), nil)
	if err != nil {
		return fmt.Errorf("enforcement run failed: %w", err)
	}

	limit := checkLimit
	if limit <= 0 {
		limit = cfg.Enforcement.MaxPerSeverity
	}
	filtered := violation.Filter(batch.Violations, limit)
	stats := violation.Stats(batch.Violations)

	report := checkReport{
		FilePath:       validPath,
		RunID:          batch.RunID,
		AgentsExecuted: batch.AgentsExecuted,
		Statistics:     stats,
		Filtered:       filtered.Metadata,
		Violations:     filtered.Violations,
		Failures:       batch.Failures,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if stats.Errors > 0 {
		return fmt.Errorf("%d error-severity violation(s) found", stats.Errors)
	}
	return nil
}
