// Package runner abstracts bounded subprocess invocation so checking agents
// can delegate to external analysis tools without spawning real processes in
// tests.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single tool invocation. A tool that has not
// produced output by then is treated the same as a crashed tool.
const DefaultTimeout = 15 * time.Second

// ErrTimeout indicates the tool exceeded its execution deadline.
var ErrTimeout = errors.New("tool execution timed out")

// Spec describes one tool invocation.
type Spec struct {
	// Command is the executable name or path.
	Command string

	// Args are passed verbatim; the runner never invokes a shell.
	Args []string

	// Stdin is fed to the process, if non-empty.
	Stdin string

	// Timeout overrides DefaultTimeout when > 0.
	Timeout time.Duration
}

// Output is the structured result of a completed invocation.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes external analysis tools.
type Runner interface {
	Run(ctx context.Context, spec Spec) (*Output, error)
}

// ExecRunner runs tools as real subprocesses with a bounded deadline.
type ExecRunner struct{}

// NewExecRunner creates a subprocess-backed runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the spec. A non-zero exit is not an error as long as the
// process ran to completion; crashed or timed-out processes return an error.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) (*Output, error) {
	if spec.Command == "" {
		return nil, errors.New("command is required")
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if spec.Stdin != "" {
		cmd.Stdin = bytes.NewBufferString(spec.Stdin)
	}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, spec.Command)
	}

	out := &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: duration,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", spec.Command, err)
	}

	return out, nil
}

var _ Runner = (*ExecRunner)(nil)
