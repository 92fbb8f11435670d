// Package violation defines the violation data model shared by all checking
// agents, plus the filtering, sorting, and batching views used to keep tool
// output compact.
package violation

import "sort"

// Severity classifies a violation. The zero value is not valid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// severityRank orders severities for sorting and presentation.
// Lower rank sorts first.
var severityRank = map[Severity]int{
	SeverityError:   0,
	SeverityWarning: 1,
	SeverityInfo:    2,
}

// Rank returns the sort rank of the severity. Unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Severities returns all known severities in rank order.
func Severities() []Severity {
	return []Severity{SeverityError, SeverityWarning, SeverityInfo}
}

// Violation is a single finding produced by a checking agent.
// Values are immutable once produced and live only for the call that
// produced them.
type Violation struct {
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Column      int      `json:"column,omitempty"`
	Severity    Severity `json:"severity"`
	Rule        string   `json:"rule"`
	Message     string   `json:"message"`
	Suggestion  string   `json:"suggestion,omitempty"`
	AutoFixable bool     `json:"auto_fixable"`
}

// Summary counts violations by severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Total returns the sum of all severity counts.
func (s Summary) Total() int {
	return s.Errors + s.Warnings + s.Info
}

// Result is the output of one agent execution. Summary always reflects the
// violation counts; use NewResult to keep the two in sync.
type Result struct {
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// NewResult builds a Result with the summary computed from the violations.
func NewResult(violations []Violation) *Result {
	if violations == nil {
		violations = []Violation{}
	}
	return &Result{
		Violations: violations,
		Summary:    Stats(violations),
	}
}

// Stats counts violations per severity.
func Stats(violations []Violation) Summary {
	var s Summary
	for _, v := range violations {
		switch v.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Info++
		}
	}
	return s
}

// Sort orders violations by (severity rank, line) in place and returns the
// same slice. Callers that need the original order must copy first.
func Sort(violations []Violation) []Violation {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Severity.Rank() != violations[j].Severity.Rank() {
			return violations[i].Severity.Rank() < violations[j].Severity.Rank()
		}
		return violations[i].Line < violations[j].Line
	})
	return violations
}

// BySeverity returns the subset of violations matching any of the given
// severities, preserving input order.
func BySeverity(violations []Violation, severities ...Severity) []Violation {
	want := make(map[Severity]bool, len(severities))
	for _, s := range severities {
		want[s] = true
	}
	out := make([]Violation, 0, len(violations))
	for _, v := range violations {
		if want[v.Severity] {
			out = append(out, v)
		}
	}
	return out
}
