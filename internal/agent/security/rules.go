package security

import (
	"regexp"

	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// Rule is one security pattern. Patterns are matched per line so findings
// carry accurate line numbers.
type Rule struct {
	ID         string
	Pattern    string
	Severity   violation.Severity
	Message    string
	Suggestion string

	compiled *regexp.Regexp
}

// DefaultRules returns the security pattern catalog: hardcoded credentials,
// query construction by string interpolation, and shell command construction
// from untrusted input.
func DefaultRules() []Rule {
	return []Rule{
		// Hardcoded credentials
		{
			ID:         "hardcoded-secret",
			Pattern:    `(?i)(?:api[_-]?key|apikey|secret|password|passwd|auth[_-]?token|access[_-]?token)\s*=\s*["'][^"']{8,}["']`,
			Severity:   violation.SeverityError,
			Message:    "Hardcoded secret assigned to a variable",
			Suggestion: "Load secrets from the environment or a secret manager instead of source code",
		},
		{
			ID:         "hardcoded-secret",
			Pattern:    `(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|ASIA)[A-Z0-9]{16}`,
			Severity:   violation.SeverityError,
			Message:    "AWS access key ID embedded in source",
			Suggestion: "Load secrets from the environment or a secret manager instead of source code",
		},
		{
			ID:         "hardcoded-secret",
			Pattern:    `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY`,
			Severity:   violation.SeverityError,
			Message:    "Private key material embedded in source",
			Suggestion: "Load secrets from the environment or a secret manager instead of source code",
		},

		// SQL built by string interpolation
		{
			ID:         "sql-injection",
			Pattern:    `(?i)\.(?:execute|executemany)\(\s*[^,)]*["']\s*\+`,
			Severity:   violation.SeverityError,
			Message:    "SQL query built by string concatenation",
			Suggestion: "Use parameterized queries with placeholder arguments instead of concatenation",
		},
		{
			ID:         "sql-injection",
			Pattern:    `(?i)\.(?:execute|executemany)\(\s*f["']`,
			Severity:   violation.SeverityError,
			Message:    "SQL query built with an f-string",
			Suggestion: "Use parameterized queries with placeholder arguments instead of interpolation",
		},
		{
			ID:         "sql-injection",
			Pattern:    `(?i)\.(?:execute|executemany)\(\s*[^,)]*["']\s*%\s`,
			Severity:   violation.SeverityError,
			Message:    "SQL query built with %-formatting",
			Suggestion: "Use parameterized queries with placeholder arguments instead of %-formatting",
		},

		// Shell commands built from untrusted input
		{
			ID:         "shell-injection",
			Pattern:    `(?i)os\.system\(\s*(?:f["']|[^)"']*\+|["'][^"']*["']\s*%)`,
			Severity:   violation.SeverityError,
			Message:    "Shell command built from interpolated input",
			Suggestion: "Use subprocess.run with an argument list and shell=False",
		},
		{
			ID:         "shell-injection",
			Pattern:    `(?i)subprocess\.\w+\([^)]*shell\s*=\s*True`,
			Severity:   violation.SeverityError,
			Message:    "Subprocess invoked with shell=True",
			Suggestion: "Use subprocess.run with an argument list and shell=False",
		},
		{
			ID:         "shell-injection",
			Pattern:    `(?i)os\.popen\(`,
			Severity:   violation.SeverityError,
			Message:    "os.popen runs its argument through the shell",
			Suggestion: "Use subprocess.run with an argument list and shell=False",
		},
	}
}

// compileRules compiles the pattern table once at agent construction.
func compileRules(rules []Rule) ([]Rule, error) {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		r.compiled = re
		out[i] = r
	}
	return out, nil
}
