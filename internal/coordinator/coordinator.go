// Package coordinator runs every applicable checking agent against one file
// concurrently, with total per-agent failure isolation: a crashing, hanging,
// or misbehaving agent is recorded and skipped, never fatal to the batch.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
	"github.com/fyrsmithlabs/enforcerd/internal/registry"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// DefaultAgentTimeout bounds one agent execution, external tool included.
const DefaultAgentTimeout = 15 * time.Second

// DefaultConcurrency bounds how many agents run at once.
const DefaultConcurrency = 4

// AgentFailure records one isolated agent failure within a batch.
type AgentFailure struct {
	Agent string `json:"agent"`
	Error string `json:"error"`
}

// BatchResult is the flat output of one file's enforcement run.
type BatchResult struct {
	RunID          string                `json:"run_id"`
	FilePath       string                `json:"file_path"`
	AgentsExecuted int                   `json:"agents_executed"`
	Violations     []violation.Violation `json:"violations"`
	Failures       []AgentFailure        `json:"failures,omitempty"`
}

// outcome is the isolated result of one agent's run.
type outcome struct {
	violations []violation.Violation
	failure    *AgentFailure
	executed   bool
}

// Coordinator resolves and executes applicable agents.
type Coordinator struct {
	registry       *registry.Registry
	logger         *zap.Logger
	agentTimeout   time.Duration
	concurrency    int
	defaultOptions map[string]any
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithAgentTimeout overrides DefaultAgentTimeout.
func WithAgentTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.agentTimeout = d
		}
	}
}

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithDefaultOptions sets agent options applied to every batch, e.g. the
// configured coverage threshold. Per-call options passed to Run override
// them key by key.
func WithDefaultOptions(opts map[string]any) Option {
	return func(c *Coordinator) {
		c.defaultOptions = opts
	}
}

// New creates a coordinator over the given registry.
func New(reg *registry.Registry, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		registry:     reg,
		logger:       logger,
		agentTimeout: DefaultAgentTimeout,
		concurrency:  DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes all agents applicable to filePath against code. Agents run
// concurrently and share no state; each is guarded so its failure is
// converted into an AgentFailure entry with zero violations. A file with no
// applicable agents yields a well-formed empty batch.
//
// The returned error is non-nil only when the batch as a whole could not
// start (context already cancelled).
func (c *Coordinator) Run(ctx context.Context, filePath, code string, options map[string]any) (*BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	options = c.mergeOptions(options)

	result := &BatchResult{
		RunID:      uuid.NewString(),
		FilePath:   filePath,
		Violations: []violation.Violation{},
	}

	names := c.registry.Applicable(filePath)
	if len(names) == 0 {
		c.logger.Debug("no applicable agents", zap.String("file", filePath))
		return result, nil
	}

	outcomes := make([]outcome, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, name := range names {
		g.Go(func() error {
			outcomes[i] = c.runOne(gctx, name, agent.Input{
				FilePath: filePath,
				Code:     code,
				Options:  options,
			})
			return nil // failures live in the outcome, never abort siblings
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.executed {
			result.AgentsExecuted++
		}
		result.Violations = append(result.Violations, o.violations...)
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
		}
	}

	c.logger.Info("enforcement batch complete",
		zap.String("run_id", result.RunID),
		zap.String("file", filePath),
		zap.Int("agents", result.AgentsExecuted),
		zap.Int("violations", len(result.Violations)),
		zap.Int("failures", len(result.Failures)))

	return result, nil
}

// mergeOptions layers per-call options over the coordinator's defaults.
func (c *Coordinator) mergeOptions(options map[string]any) map[string]any {
	if len(c.defaultOptions) == 0 {
		return options
	}
	merged := make(map[string]any, len(c.defaultOptions)+len(options))
	for k, v := range c.defaultOptions {
		merged[k] = v
	}
	for k, v := range options {
		merged[k] = v
	}
	return merged
}

// runOne loads and executes a single agent under its own deadline,
// converting every failure mode, panics included, into an AgentFailure.
func (c *Coordinator) runOne(ctx context.Context, name string, in agent.Input) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("agent panicked",
				zap.String("agent", name),
				zap.Any("panic", r))
			out.failure = &AgentFailure{
				Agent: name,
				Error: fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	a, err := c.registry.Get(ctx, name)
	if err != nil {
		out.failure = &AgentFailure{Agent: name, Error: err.Error()}
		return out
	}

	execCtx, cancel := context.WithTimeout(ctx, c.agentTimeout)
	defer cancel()

	out.executed = true
	res, err := a.Execute(execCtx, in)
	if err != nil {
		c.logger.Warn("agent execution failed",
			zap.String("agent", name),
			zap.Error(err))
		out.failure = &AgentFailure{Agent: name, Error: err.Error()}
		return out
	}

	out.violations = res.Violations
	return out
}
