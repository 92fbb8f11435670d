package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
	"github.com/fyrsmithlabs/enforcerd/internal/agent/coverage"
	"github.com/fyrsmithlabs/enforcerd/internal/agent/doccheck"
	"github.com/fyrsmithlabs/enforcerd/internal/agent/security"
	"github.com/fyrsmithlabs/enforcerd/internal/agent/typecheck"
	"github.com/fyrsmithlabs/enforcerd/internal/runner"
)

// ToolConfig names the external analysis commands agents delegate to.
type ToolConfig struct {
	// TypecheckCommand enables delegation to an external type checker
	// (e.g. "mypy"). Empty runs only the in-process annotation checks.
	TypecheckCommand string

	// CoverageCommand is the coverage measurement tool. Defaults to
	// "coverage" when empty.
	CoverageCommand string
}

// Default builds the standard four-agent catalog: type checking,
// documentation validation, coverage checking, and security scanning.
func Default(run runner.Runner, tools ToolConfig, logger *zap.Logger) (*Registry, error) {
	if run == nil {
		run = runner.NewExecRunner()
	}
	if tools.CoverageCommand == "" {
		tools.CoverageCommand = "coverage"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := New(logger)

	entries := []struct {
		md      agent.Metadata
		factory Factory
	}{
		{
			md: typecheck.Describe(),
			factory: func(context.Context) (agent.Agent, error) {
				var opts []typecheck.Option
				if tools.TypecheckCommand != "" {
					opts = append(opts, typecheck.WithTool(run, tools.TypecheckCommand))
				}
				return typecheck.New(logger.Named("typecheck"), opts...), nil
			},
		},
		{
			md: doccheck.Describe(),
			factory: func(context.Context) (agent.Agent, error) {
				return doccheck.New(logger.Named("doccheck")), nil
			},
		},
		{
			md: coverage.Describe(),
			factory: func(context.Context) (agent.Agent, error) {
				return coverage.New(run, tools.CoverageCommand, logger.Named("coverage"))
			},
		},
		{
			md: security.Describe(),
			factory: func(context.Context) (agent.Agent, error) {
				return security.New(logger.Named("security"))
			},
		},
	}

	for _, e := range entries {
		if err := r.Register(e.md, e.factory); err != nil {
			return nil, err
		}
	}
	return r, nil
}
