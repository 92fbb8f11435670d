package violation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeViolations(sev Severity, startLine, count int) []Violation {
	out := make([]Violation, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, Violation{
			File:     "sample.py",
			Line:     startLine + i,
			Severity: sev,
			Rule:     "test-rule",
			Message:  "test message",
		})
	}
	return out
}

func TestFilterCapsPerSeverity(t *testing.T) {
	// 20 errors (lines 1-20) + 15 warnings (lines 100-114) + 5 info (lines 200-204)
	var input []Violation
	input = append(input, makeViolations(SeverityError, 1, 20)...)
	input = append(input, makeViolations(SeverityWarning, 100, 15)...)
	input = append(input, makeViolations(SeverityInfo, 200, 5)...)

	result := Filter(input, 10)

	assert.Len(t, result.Violations, 25)
	assert.Equal(t, 40, result.Metadata.Total)
	assert.Equal(t, 15, result.Metadata.Truncated)

	assert.Equal(t, SeverityCounts{Total: 20, Returned: 10, Truncated: 10}, result.Metadata.BySeverity[SeverityError])
	assert.Equal(t, SeverityCounts{Total: 15, Returned: 10, Truncated: 5}, result.Metadata.BySeverity[SeverityWarning])
	assert.Equal(t, SeverityCounts{Total: 5, Returned: 5, Truncated: 0}, result.Metadata.BySeverity[SeverityInfo])
}

func TestFilterOrdersSeverityThenLine(t *testing.T) {
	input := []Violation{
		{Line: 50, Severity: SeverityInfo},
		{Line: 3, Severity: SeverityError},
		{Line: 7, Severity: SeverityWarning},
		{Line: 1, Severity: SeverityError},
	}

	result := Filter(input, 10)

	require.Len(t, result.Violations, 4)
	assert.Equal(t, SeverityError, result.Violations[0].Severity)
	assert.Equal(t, 1, result.Violations[0].Line)
	assert.Equal(t, SeverityError, result.Violations[1].Severity)
	assert.Equal(t, 3, result.Violations[1].Line)
	assert.Equal(t, SeverityWarning, result.Violations[2].Severity)
	assert.Equal(t, SeverityInfo, result.Violations[3].Severity)
}

func TestFilterKeepsLowestLines(t *testing.T) {
	// Lines arrive out of order; the cap must keep the lowest line numbers.
	input := []Violation{
		{Line: 90, Severity: SeverityError},
		{Line: 10, Severity: SeverityError},
		{Line: 50, Severity: SeverityError},
	}

	result := Filter(input, 2)

	require.Len(t, result.Violations, 2)
	assert.Equal(t, 10, result.Violations[0].Line)
	assert.Equal(t, 50, result.Violations[1].Line)
	assert.Equal(t, SeverityCounts{Total: 3, Returned: 2, Truncated: 1}, result.Metadata.BySeverity[SeverityError])
}

func TestFilterMetadataReconciles(t *testing.T) {
	cases := []struct {
		name string
		errs, warns, infos,
		max int
	}{
		{"empty", 0, 0, 0, 10},
		{"under cap", 3, 2, 1, 10},
		{"exactly at cap", 10, 10, 10, 10},
		{"all over cap", 25, 25, 25, 10},
		{"cap of one", 5, 5, 5, 1},
		{"zero cap falls back to default", 15, 0, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var input []Violation
			input = append(input, makeViolations(SeverityError, 1, tc.errs)...)
			input = append(input, makeViolations(SeverityWarning, 1, tc.warns)...)
			input = append(input, makeViolations(SeverityInfo, 1, tc.infos)...)

			result := Filter(input, tc.max)

			assert.Equal(t, len(input), result.Metadata.Total)

			var sumTotal, sumTruncated, sumReturned int
			for _, sev := range Severities() {
				counts := result.Metadata.BySeverity[sev]
				assert.Equal(t, counts.Total, counts.Returned+counts.Truncated, "severity %s must reconcile", sev)
				sumTotal += counts.Total
				sumTruncated += counts.Truncated
				sumReturned += counts.Returned
			}
			assert.Equal(t, result.Metadata.Total, sumTotal)
			assert.Equal(t, result.Metadata.Truncated, sumTruncated)
			assert.Equal(t, len(result.Violations), sumReturned)

			max := tc.max
			if max <= 0 {
				max = DefaultMaxPerSeverity
			}
			for _, sev := range Severities() {
				assert.LessOrEqual(t, result.Metadata.BySeverity[sev].Returned, max)
			}
		})
	}
}

func TestFilterAccountsForUnknownSeverity(t *testing.T) {
	input := []Violation{
		{Line: 1, Severity: SeverityError},
		{Line: 2, Severity: Severity("bogus")},
		{Line: 3, Severity: SeverityInfo},
	}

	result := Filter(input, 10)

	assert.Equal(t, len(input), result.Metadata.Total,
		"a malformed severity must not drop the violation from the accounting")
	require.Len(t, result.Violations, 3)

	lines := make([]int, 0, len(result.Violations))
	for _, v := range result.Violations {
		lines = append(lines, v.Line)
	}
	assert.Contains(t, lines, 2, "the malformed-severity violation itself is kept")
	assert.Equal(t, 2, result.Metadata.BySeverity[SeverityInfo].Total,
		"unknown severities are counted under info")
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	input := []Violation{
		{Line: 9, Severity: SeverityError},
		{Line: 1, Severity: SeverityError},
	}

	Filter(input, 10)

	assert.Equal(t, 9, input[0].Line, "Filter must not reorder the caller's slice")
}
