package violation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamBatchesInOrder(t *testing.T) {
	var input []Violation
	input = append(input, makeViolations(SeverityWarning, 100, 5)...)
	input = append(input, makeViolations(SeverityError, 1, 7)...)

	var batches [][]Violation
	for batch := range Stream(input, 4) {
		batches = append(batches, batch)
	}

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 4)
	assert.Len(t, batches[1], 4)
	assert.Len(t, batches[2], 4)

	// Errors come first regardless of input order.
	assert.Equal(t, SeverityError, batches[0][0].Severity)
	assert.Equal(t, 1, batches[0][0].Line)
	assert.Equal(t, SeverityWarning, batches[2][3].Severity)
}

func TestStreamEarlyStop(t *testing.T) {
	input := makeViolations(SeverityError, 1, 30)

	var seen int
	for batch := range Stream(input, 10) {
		seen += len(batch)
		break
	}

	assert.Equal(t, 10, seen)
}

func TestStreamEmpty(t *testing.T) {
	count := 0
	for range Stream(nil, 10) {
		count++
	}
	assert.Zero(t, count)
}

func TestStreamDoesNotMutateInput(t *testing.T) {
	input := []Violation{
		{Line: 9, Severity: SeverityError},
		{Line: 1, Severity: SeverityError},
	}

	for range Stream(input, 1) {
	}

	assert.Equal(t, 9, input[0].Line)
}

func TestStreamDefaultBatchSize(t *testing.T) {
	input := makeViolations(SeverityError, 1, 25)

	var sizes []int
	for batch := range Stream(input, 0) {
		sizes = append(sizes, len(batch))
	}

	assert.Equal(t, []int{10, 10, 5}, sizes)
}
