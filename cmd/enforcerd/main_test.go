package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportsErrorsOnStderr(t *testing.T) {
	var stderr bytes.Buffer

	code := run([]string{"check"}, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error:")
	assert.Contains(t, stderr.String(), "accepts 1 arg(s)")
}

func TestRunUnknownCommandReportsErrorsOnStderr(t *testing.T) {
	var stderr bytes.Buffer

	code := run([]string{"no-such-command"}, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "no-such-command")
}

func TestRunSucceedsSilently(t *testing.T) {
	var stderr bytes.Buffer

	code := run([]string{"version"}, &stderr)

	require.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
}
