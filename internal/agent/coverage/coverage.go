// Package coverage implements the test-coverage checking agent. Measurement
// is delegated to an external coverage tool; this adapter validates input,
// bounds the tool invocation, and maps its JSON report into violations.
package coverage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
	"github.com/fyrsmithlabs/enforcerd/internal/runner"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// Name is the registry key for this agent.
const Name = "coverage"

// DefaultThreshold is the minimum acceptable coverage percentage.
const DefaultThreshold = 80

// ThresholdOption is the Input.Options key overriding DefaultThreshold.
const ThresholdOption = "threshold"

var metadata = agent.Metadata{
	Name:                Name,
	DisplayName:         "Coverage Checker",
	Description:         "Verifies test coverage meets the configured threshold",
	SupportedExtensions: []string{".py"},
}

// report is the structured output expected from the coverage tool.
type report struct {
	PercentCovered float64 `json:"percent_covered"`
	MissingLines   []int   `json:"missing_lines"`
}

// Describe returns the agent's metadata without constructing it.
func Describe() agent.Metadata { return metadata }

// Agent maps external coverage measurements into violations.
type Agent struct {
	run    runner.Runner
	tool   string
	logger *zap.Logger
}

// New constructs the agent around an injected coverage tool.
func New(run runner.Runner, tool string, logger *zap.Logger) (*Agent, error) {
	if run == nil {
		return nil, fmt.Errorf("coverage agent requires a runner")
	}
	if tool == "" {
		return nil, fmt.Errorf("coverage agent requires a tool command")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{run: run, tool: tool, logger: logger}, nil
}

// Metadata returns the agent descriptor.
func (a *Agent) Metadata() agent.Metadata { return metadata }

// Execute measures coverage for the file and reports a violation when it
// falls below the threshold, plus one info finding per uncovered line.
func (a *Agent) Execute(ctx context.Context, in agent.Input) (*violation.Result, error) {
	if err := agent.CheckInput(metadata, in); err != nil {
		return nil, err
	}

	threshold, err := agent.IntOption(in.Options, ThresholdOption, DefaultThreshold)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("%w: threshold must be between 0 and 100, got %d", agent.ErrValidation, threshold)
	}

	out, err := a.run.Run(ctx, runner.Spec{
		Command: a.tool,
		Args:    []string{"report", "--format=json", in.FilePath},
	})
	if err != nil {
		return nil, fmt.Errorf("coverage tool failed: %w", err)
	}
	if out.ExitCode != 0 {
		return nil, fmt.Errorf("coverage tool exited %d: %s", out.ExitCode, out.Stderr)
	}

	var rep report
	if err := json.Unmarshal(out.Stdout, &rep); err != nil {
		return nil, fmt.Errorf("unparseable coverage report: %w", err)
	}

	var violations []violation.Violation
	if rep.PercentCovered < float64(threshold) {
		violations = append(violations, violation.Violation{
			File:       in.FilePath,
			Line:       1,
			Severity:   violation.SeverityWarning,
			Rule:       "insufficient-coverage",
			Message:    fmt.Sprintf("coverage %.1f%% is below the %d%% threshold", rep.PercentCovered, threshold),
			Suggestion: "Add tests for the uncovered lines",
		})
		for _, line := range rep.MissingLines {
			if line < 1 {
				continue
			}
			violations = append(violations, violation.Violation{
				File:     in.FilePath,
				Line:     line,
				Severity: violation.SeverityInfo,
				Rule:     "uncovered-line",
				Message:  "line is not covered by any test",
			})
		}
	}

	a.logger.Debug("coverage check complete",
		zap.String("file", in.FilePath),
		zap.Float64("percent", rep.PercentCovered),
		zap.Int("threshold", threshold))

	return violation.NewResult(violations), nil
}

var _ agent.Agent = (*Agent)(nil)
