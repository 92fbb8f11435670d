package typecheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
	"github.com/fyrsmithlabs/enforcerd/internal/runner"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

func TestDeprecatedAliasesOnePerImport(t *testing.T) {
	a := New(zap.NewNop())

	code := `from typing import List, Dict, Optional, Union
`
	result, err := a.Execute(context.Background(), agent.Input{FilePath: "sample.py", Code: code})
	require.NoError(t, err)

	aliases := violation.BySeverity(result.Violations, violation.SeverityError)
	require.Len(t, aliases, 4, "one violation per deprecated alias")
	for _, v := range aliases {
		assert.Equal(t, "deprecated-typing-alias", v.Rule)
		assert.True(t, v.AutoFixable)
		assert.Equal(t, 1, v.Line)
		assert.NotEmpty(t, v.Suggestion)
	}
	assert.Equal(t, 4, result.Summary.Errors)
}

func TestDeprecatedAliasSuggestsModernEquivalent(t *testing.T) {
	a := New(zap.NewNop())

	tests := []struct {
		alias      string
		suggestion string
	}{
		{"List", "list"},
		{"Dict", "dict"},
		{"Optional", "X | None"},
		{"Union", "X | Y"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			result, err := a.Execute(context.Background(), agent.Input{
				FilePath: "sample.py",
				Code:     "from typing import " + tt.alias + "\n",
			})
			require.NoError(t, err)
			require.Len(t, result.Violations, 1)
			assert.Contains(t, result.Violations[0].Suggestion, tt.suggestion)
		})
	}
}

func TestDeprecatedAliasUnderRename(t *testing.T) {
	a := New(zap.NewNop())

	result, err := a.Execute(context.Background(), agent.Input{
		FilePath: "sample.py",
		Code:     "from typing import List as L\n",
	})
	require.NoError(t, err)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "deprecated-typing-alias", result.Violations[0].Rule)
}

func TestModernImportsAreClean(t *testing.T) {
	a := New(zap.NewNop())

	code := `from typing import Protocol, TypeVar

def total(prices: list[int]) -> int:
    return sum(prices)
`
	result, err := a.Execute(context.Background(), agent.Input{FilePath: "sample.py", Code: code})
	require.NoError(t, err)
	assert.Empty(t, result.Violations)
	assert.Equal(t, violation.Summary{}, result.Summary)
}

func TestMissingAnnotations(t *testing.T) {
	a := New(zap.NewNop())

	code := `def calculate_total(prices):
    return sum(prices)

def format_name(first_name, last_name: str) -> str:
    return first_name + last_name
`
	result, err := a.Execute(context.Background(), agent.Input{FilePath: "sample.py", Code: code})
	require.NoError(t, err)

	rules := make(map[string]int)
	for _, v := range result.Violations {
		rules[v.Rule]++
		assert.Equal(t, violation.SeverityWarning, v.Severity)
	}
	// calculate_total: missing return + missing param; format_name: missing param only.
	assert.Equal(t, 1, rules["missing-return-annotation"])
	assert.Equal(t, 2, rules["missing-param-annotation"])
}

func TestSelfAndClsSkipped(t *testing.T) {
	a := New(zap.NewNop())

	code := `class Manager:
    def get(self, index: int) -> str:
        return str(index)
`
	result, err := a.Execute(context.Background(), agent.Input{FilePath: "sample.py", Code: code})
	require.NoError(t, err)
	assert.Empty(t, result.Violations)
}

func TestNestedGenericParamsNotSplit(t *testing.T) {
	a := New(zap.NewNop())

	code := `def merge(data: dict[str, int], extra: dict[str, int]) -> dict[str, int]:
    return data | extra
`
	result, err := a.Execute(context.Background(), agent.Input{FilePath: "sample.py", Code: code})
	require.NoError(t, err)
	assert.Empty(t, result.Violations)
}

func TestStubFilesSupported(t *testing.T) {
	a := New(zap.NewNop())

	_, err := a.Execute(context.Background(), agent.Input{FilePath: "types.pyi", Code: ""})
	assert.NoError(t, err)

	_, err = a.Execute(context.Background(), agent.Input{FilePath: "app.js", Code: ""})
	assert.ErrorIs(t, err, agent.ErrUnsupportedFile)
}

func TestExternalCheckerDiagnosticsMerged(t *testing.T) {
	fake := runner.NewFake()
	fake.Enqueue(&runner.Output{
		Stdout: []byte(`<string>:3:5: error: Incompatible return value type
<string>:7:1: note: See documentation
`),
	}, nil)

	a := New(zap.NewNop(), WithTool(fake, "mypy"))

	result, err := a.Execute(context.Background(), agent.Input{FilePath: "sample.py", Code: "x = 1\n"})
	require.NoError(t, err)

	require.Len(t, result.Violations, 2)
	assert.Equal(t, "type-error", result.Violations[0].Rule)
	assert.Equal(t, violation.SeverityError, result.Violations[0].Severity)
	assert.Equal(t, 3, result.Violations[0].Line)
	assert.Equal(t, 5, result.Violations[0].Column)
	assert.Equal(t, violation.SeverityInfo, result.Violations[1].Severity)

	require.Len(t, fake.Calls, 1)
	assert.Equal(t, "mypy", fake.Calls[0].Command)
}

func TestExternalCheckerFailurePropagates(t *testing.T) {
	fake := runner.NewFake()
	fake.Enqueue(nil, errors.New("tool crashed"))

	a := New(zap.NewNop(), WithTool(fake, "mypy"))

	_, err := a.Execute(context.Background(), agent.Input{FilePath: "sample.py", Code: "x = 1\n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external type checker")
}

func TestInputValidation(t *testing.T) {
	a := New(zap.NewNop())

	_, err := a.Execute(context.Background(), agent.Input{})
	assert.ErrorIs(t, err, agent.ErrValidation)
}
