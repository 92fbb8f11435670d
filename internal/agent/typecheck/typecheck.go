// Package typecheck implements the type/annotation checking agent for
// Python sources and stub files.
//
// Fast, deterministic checks (deprecated typing aliases, missing
// annotations) run in-process; deeper analysis is delegated to an injected
// external type checker when one is configured.
package typecheck

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
	"github.com/fyrsmithlabs/enforcerd/internal/runner"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// Name is the registry key for this agent.
const Name = "typecheck"

var metadata = agent.Metadata{
	Name:                Name,
	DisplayName:         "Type Checker",
	Description:         "Flags deprecated typing generics and missing type annotations",
	SupportedExtensions: []string{".py", ".pyi"},
}

// deprecatedAliases maps legacy typing generics to their modern equivalents.
// Each import of one of these produces one auto-fixable error.
var deprecatedAliases = map[string]string{
	"List":      "list",
	"Dict":      "dict",
	"Set":       "set",
	"Tuple":     "tuple",
	"FrozenSet": "frozenset",
	"Type":      "type",
	"Optional":  "X | None",
	"Union":     "X | Y",
}

var (
	typingImportRe = regexp.MustCompile(`^\s*from\s+typing\s+import\s+(.+)$`)
	defRe          = regexp.MustCompile(`^\s*def\s+(\w+)\s*\((.*)\)\s*(->\s*[^:]+)?:`)
	// mypy-style diagnostic: path:line:column: severity: message
	toolDiagRe = regexp.MustCompile(`^(.*?):(\d+):(?:(\d+):)?\s*(error|warning|note):\s*(.+)$`)
)

// Describe returns the agent's metadata without constructing it.
func Describe() agent.Metadata { return metadata }

// Agent performs annotation checks over a source snapshot.
type Agent struct {
	run    runner.Runner
	tool   string
	logger *zap.Logger
}

// Option configures the agent.
type Option func(*Agent)

// WithTool enables delegation to an external type checker (e.g. mypy)
// executed through run. The tool's diagnostics are merged into the result.
func WithTool(run runner.Runner, tool string) Option {
	return func(a *Agent) {
		a.run = run
		a.tool = tool
	}
}

// New constructs the agent. Without options it runs only the in-process
// checks.
func New(logger *zap.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Agent{logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metadata returns the agent descriptor.
func (a *Agent) Metadata() agent.Metadata { return metadata }

// Execute runs the annotation checks.
func (a *Agent) Execute(ctx context.Context, in agent.Input) (*violation.Result, error) {
	if err := agent.CheckInput(metadata, in); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var violations []violation.Violation
	violations = append(violations, checkDeprecatedAliases(in)...)
	violations = append(violations, checkMissingAnnotations(in)...)

	if a.run != nil && a.tool != "" {
		toolViolations, err := a.runExternalChecker(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("external type checker failed: %w", err)
		}
		violations = append(violations, toolViolations...)
	}

	return violation.NewResult(violations), nil
}

// checkDeprecatedAliases reports one violation per legacy generic imported
// from typing, each with a concrete modern replacement.
func checkDeprecatedAliases(in agent.Input) []violation.Violation {
	var out []violation.Violation
	for lineNo, line := range strings.Split(in.Code, "\n") {
		m := typingImportRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), ")"))
			// "List as L" still imports the deprecated alias.
			if idx := strings.Index(name, " as "); idx >= 0 {
				name = name[:idx]
			}
			modern, deprecated := deprecatedAliases[name]
			if !deprecated {
				continue
			}
			out = append(out, violation.Violation{
				File:        in.FilePath,
				Line:        lineNo + 1,
				Severity:    violation.SeverityError,
				Rule:        "deprecated-typing-alias",
				Message:     fmt.Sprintf("typing.%s is deprecated", name),
				Suggestion:  fmt.Sprintf("Use %s instead of typing.%s", modern, name),
				AutoFixable: true,
			})
		}
	}
	return out
}

// checkMissingAnnotations flags function definitions without a return
// annotation and parameters without a type annotation.
func checkMissingAnnotations(in agent.Input) []violation.Violation {
	var out []violation.Violation
	for lineNo, line := range strings.Split(in.Code, "\n") {
		m := defRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		funcName, params, returnAnn := m[1], m[2], m[3]

		if returnAnn == "" {
			out = append(out, violation.Violation{
				File:     in.FilePath,
				Line:     lineNo + 1,
				Severity: violation.SeverityWarning,
				Rule:     "missing-return-annotation",
				Message:  fmt.Sprintf("function %q has no return type annotation", funcName),
			})
		}

		for _, p := range splitParams(params) {
			name := strings.TrimSpace(p)
			if name == "" || name == "self" || name == "cls" {
				continue
			}
			if strings.HasPrefix(name, "*") || strings.Contains(name, ":") {
				continue
			}
			// Default values without annotations still lack a type.
			if idx := strings.Index(name, "="); idx >= 0 {
				name = strings.TrimSpace(name[:idx])
			}
			out = append(out, violation.Violation{
				File:     in.FilePath,
				Line:     lineNo + 1,
				Severity: violation.SeverityWarning,
				Rule:     "missing-param-annotation",
				Message:  fmt.Sprintf("parameter %q of %q has no type annotation", name, funcName),
			})
		}
	}
	return out
}

// splitParams splits a parameter list on top-level commas, ignoring commas
// nested inside brackets (e.g. Dict[str, int]).
func splitParams(params string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range params {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, params[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(params[start:]) != "" {
		out = append(out, params[start:])
	}
	return out
}

// runExternalChecker feeds the source to the configured tool and parses its
// diagnostics into violations.
func (a *Agent) runExternalChecker(ctx context.Context, in agent.Input) ([]violation.Violation, error) {
	out, err := a.run.Run(ctx, runner.Spec{
		Command: a.tool,
		Args:    []string{"--show-column-numbers", "--no-error-summary", "-c", in.Code},
	})
	if err != nil {
		return nil, err
	}

	var violations []violation.Violation
	for _, line := range strings.Split(string(out.Stdout), "\n") {
		m := toolDiagRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNo, err := strconv.Atoi(m[2])
		if err != nil || lineNo < 1 {
			continue
		}
		col := 0
		if m[3] != "" {
			col, _ = strconv.Atoi(m[3])
		}
		violations = append(violations, violation.Violation{
			File:     in.FilePath,
			Line:     lineNo,
			Column:   col,
			Severity: toolSeverity(m[4]),
			Rule:     "type-error",
			Message:  m[5],
		})
	}

	a.logger.Debug("external type check complete",
		zap.String("tool", a.tool),
		zap.Int("diagnostics", len(violations)))

	return violations, nil
}

func toolSeverity(s string) violation.Severity {
	switch s {
	case "error":
		return violation.SeverityError
	case "warning":
		return violation.SeverityWarning
	default:
		return violation.SeverityInfo
	}
}

var _ agent.Agent = (*Agent)(nil)
