// Package doccheck implements the documentation completeness agent. It
// checks declarations only, so it applies to stub files as well as regular
// Python sources.
package doccheck

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// Name is the registry key for this agent.
const Name = "doccheck"

var metadata = agent.Metadata{
	Name:                Name,
	DisplayName:         "Documentation Validator",
	Description:         "Checks modules, classes, and public functions for docstrings",
	SupportedExtensions: []string{".py", ".pyi"},
}

var (
	defRe   = regexp.MustCompile(`^(\s*)def\s+(\w+)\s*\(`)
	classRe = regexp.MustCompile(`^(\s*)class\s+(\w+)\s*[(:]`)
)

// Describe returns the agent's metadata without constructing it.
func Describe() agent.Metadata { return metadata }

// Agent validates docstring presence.
type Agent struct {
	logger *zap.Logger
}

// New constructs the agent.
func New(logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{logger: logger}
}

// Metadata returns the agent descriptor.
func (a *Agent) Metadata() agent.Metadata { return metadata }

// Execute scans for a module docstring and per-declaration docstrings.
// Private helpers (leading underscore) are reported at info severity,
// public declarations at warning.
func (a *Agent) Execute(ctx context.Context, in agent.Input) (*violation.Result, error) {
	if err := agent.CheckInput(metadata, in); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := strings.Split(in.Code, "\n")
	var violations []violation.Violation

	if !hasModuleDocstring(lines) {
		violations = append(violations, violation.Violation{
			File:     in.FilePath,
			Line:     1,
			Severity: violation.SeverityWarning,
			Rule:     "missing-module-docstring",
			Message:  "module has no docstring",
		})
	}

	for i, line := range lines {
		kind, name := declarationAt(line)
		if kind == "" {
			continue
		}
		if followedByDocstring(lines, i) {
			continue
		}

		sev := violation.SeverityWarning
		if strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__") {
			sev = violation.SeverityInfo
		}
		violations = append(violations, violation.Violation{
			File:     in.FilePath,
			Line:     i + 1,
			Severity: sev,
			Rule:     "missing-docstring",
			Message:  fmt.Sprintf("%s %q has no docstring", kind, name),
		})
	}

	return violation.NewResult(violations), nil
}

// declarationAt returns the declaration kind and name on the line, or ""
// when the line declares nothing.
func declarationAt(line string) (kind, name string) {
	if m := classRe.FindStringSubmatch(line); m != nil {
		return "class", m[2]
	}
	if m := defRe.FindStringSubmatch(line); m != nil {
		return "function", m[2]
	}
	return "", ""
}

// hasModuleDocstring reports whether the first significant line opens a
// string literal.
func hasModuleDocstring(lines []string) bool {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") ||
			strings.HasPrefix(trimmed, `r"""`) || strings.HasPrefix(trimmed, "r'''")
	}
	return false
}

// followedByDocstring reports whether the declaration starting at index i
// opens with a docstring. The signature may span multiple lines; it ends at
// the first line that closes all brackets and ends with a colon, so an
// annotated parameter line like "y: int" does not terminate the scan.
func followedByDocstring(lines []string, i int) bool {
	depth := 0
	sigEnd := -1
	for j := i; j < len(lines); j++ {
		for _, r := range lines[j] {
			switch r {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			}
		}
		if depth <= 0 && strings.HasSuffix(strings.TrimSpace(lines[j]), ":") {
			sigEnd = j
			break
		}
	}
	if sigEnd < 0 {
		return false
	}

	for j := sigEnd + 1; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''")
	}
	return false
}

var _ agent.Agent = (*Agent)(nil)
