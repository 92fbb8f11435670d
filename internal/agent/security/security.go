// Package security implements the cross-language security scanning agent.
// It is pattern-based and needs no external tooling, so it applies to every
// recognized source extension, not only the primary language.
package security

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// Name is the registry key for this agent.
const Name = "security"

var metadata = agent.Metadata{
	Name:                Name,
	DisplayName:         "Security Scanner",
	Description:         "Detects hardcoded secrets, SQL injection risks, and unsafe shell invocation",
	SupportedExtensions: []string{".py", ".js", ".jsx", ".ts", ".tsx", ".sh"},
}

// Describe returns the agent's metadata without constructing it.
func Describe() agent.Metadata { return metadata }

// Agent scans source text against a compiled rule table.
type Agent struct {
	rules  []Rule
	logger *zap.Logger
}

// New constructs the agent with the default rule catalog.
func New(logger *zap.Logger) (*Agent, error) {
	return NewWithRules(DefaultRules(), logger)
}

// NewWithRules constructs the agent with a custom rule catalog.
func NewWithRules(rules []Rule, logger *zap.Logger) (*Agent, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile security rules: %w", err)
	}
	return &Agent{rules: compiled, logger: logger}, nil
}

// Metadata returns the agent descriptor.
func (a *Agent) Metadata() agent.Metadata { return metadata }

// Execute scans every line of the input against every rule. A file with no
// matching patterns yields zero violations and an all-zero summary.
func (a *Agent) Execute(ctx context.Context, in agent.Input) (*violation.Result, error) {
	if err := agent.CheckInput(metadata, in); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var violations []violation.Violation
	for lineNo, line := range strings.Split(in.Code, "\n") {
		for _, rule := range a.rules {
			loc := rule.compiled.FindStringIndex(line)
			if loc == nil {
				continue
			}
			violations = append(violations, violation.Violation{
				File:       in.FilePath,
				Line:       lineNo + 1,
				Column:     loc[0] + 1,
				Severity:   rule.Severity,
				Rule:       rule.ID,
				Message:    rule.Message,
				Suggestion: rule.Suggestion,
			})
		}
	}

	a.logger.Debug("security scan complete",
		zap.String("file", in.FilePath),
		zap.Int("findings", len(violations)))

	return violation.NewResult(violations), nil
}

var _ agent.Agent = (*Agent)(nil)
