package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
	"github.com/fyrsmithlabs/enforcerd/internal/coordinator"
	"github.com/fyrsmithlabs/enforcerd/internal/sanitize"
	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// toolError wraps a tool failure into an error result the client can parse
// without the transport treating it as a protocol failure.
func toolError(tool string, err error) *mcp.CallToolResult {
	payload, marshalErr := json.Marshal(map[string]string{
		"error": err.Error(),
		"tool":  tool,
	})
	if marshalErr != nil {
		payload = []byte(fmt.Sprintf(`{"error":%q,"tool":%q}`, err.Error(), tool))
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}
}

// registerTools registers all enforcement tools with the server.
func (s *Server) registerTools() {
	s.registerEnforceFileTool()
	s.registerListAgentsTool()
	s.registerApplicableAgentsTool()
}

// ===== ENFORCE FILE =====

type enforceFileInput struct {
	FilePath         string `json:"file_path" jsonschema:"required,Path to the file being checked relative to the project root"`
	Code             string `json:"code" jsonschema:"required,Source code content to check"`
	LimitPerSeverity int    `json:"limit_per_severity,omitempty" jsonschema:"Maximum violations returned per severity (default: 10)"`
}

type filteredStats struct {
	Shown        int                                             `json:"shown"`
	Total        int                                             `json:"total"`
	Truncated    int                                             `json:"truncated"`
	ReductionPct float64                                         `json:"reduction_pct"`
	BySeverity   map[violation.Severity]violation.SeverityCounts `json:"by_severity"`
}

type enforceFileOutput struct {
	FilePath       string                     `json:"file_path" jsonschema:"Validated file path"`
	RunID          string                     `json:"run_id" jsonschema:"Unique identifier of this enforcement run"`
	AgentsExecuted int                        `json:"agents_executed" jsonschema:"Number of agents that ran"`
	Statistics     violation.Summary          `json:"statistics" jsonschema:"Pre-filter violation counts by severity"`
	Filtered       filteredStats              `json:"filtered" jsonschema:"Truncation accounting for the returned set"`
	Violations     []violation.Violation      `json:"violations" jsonschema:"Violations after per-severity filtering in errors-warnings-info order"`
	Failures       []coordinator.AgentFailure `json:"failures,omitempty" jsonschema:"Agents that failed in isolation"`
}

func (s *Server) registerEnforceFileTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "enforce_file",
		Description: "Run all applicable checking agents against a file and return filtered violations",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args enforceFileInput) (*mcp.CallToolResult, enforceFileOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "enforce_file")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "enforce_file")
			s.metrics.RecordInvocation(ctx, "enforce_file", time.Since(start), toolErr)
		}()

		validPath, err := sanitize.ValidatePath(args.FilePath, s.projectRoot)
		if err != nil {
			toolErr = fmt.Errorf("invalid file_path: %w", err)
			return toolError("enforce_file", toolErr), enforceFileOutput{}, nil
		}

		limit := args.LimitPerSeverity
		if limit <= 0 {
			limit = s.maxPerSeverity
		}

		batch, err := s.coord.Run(ctx, validPath, args.Code, nil)
		if err != nil {
			toolErr = err
			return toolError("enforce_file", err), enforceFileOutput{}, nil
		}

		stats := violation.Stats(batch.Violations)
		filtered := violation.Filter(batch.Violations, limit)

		out := enforceFileOutput{
			FilePath:       validPath,
			RunID:          batch.RunID,
			AgentsExecuted: batch.AgentsExecuted,
			Statistics:     stats,
			Filtered: filteredStats{
				Shown:        len(filtered.Violations),
				Total:        filtered.Metadata.Total,
				Truncated:    filtered.Metadata.Truncated,
				ReductionPct: reductionPct(filtered.Metadata.Total, len(filtered.Violations)),
				BySeverity:   filtered.Metadata.BySeverity,
			},
			Violations: filtered.Violations,
			Failures:   batch.Failures,
		}

		s.logger.Debug("enforce_file complete",
			zap.String("file", validPath),
			zap.Int("total", out.Filtered.Total),
			zap.Int("shown", out.Filtered.Shown))

		return nil, out, nil
	})
}

// reductionPct is how much of the violation set filtering removed.
func reductionPct(total, shown int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-shown) / float64(total) * 100
}

// ===== LIST AGENTS =====

type agentInfo struct {
	Name                string   `json:"name" jsonschema:"Registry key of the agent"`
	DisplayName         string   `json:"display_name" jsonschema:"Human-readable agent name"`
	Description         string   `json:"description" jsonschema:"What the agent checks"`
	SupportedExtensions []string `json:"supported_extensions" jsonschema:"File extensions the agent applies to"`
}

type listAgentsInput struct{}

type listAgentsOutput struct {
	Agents []agentInfo `json:"agents" jsonschema:"All registered agents in registration order"`
	Count  int         `json:"count" jsonschema:"Number of registered agents"`
}

func (s *Server) registerListAgentsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_agents",
		Description: "List every registered checking agent and its capabilities",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listAgentsInput) (*mcp.CallToolResult, listAgentsOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "list_agents")
		defer func() {
			s.metrics.DecrementActive(ctx, "list_agents")
			s.metrics.RecordInvocation(ctx, "list_agents", time.Since(start), nil)
		}()

		catalog := s.registry.Discover()
		out := listAgentsOutput{
			Agents: make([]agentInfo, 0, len(catalog)),
			Count:  len(catalog),
		}
		for _, md := range catalog {
			out.Agents = append(out.Agents, describeAgent(md))
		}
		return nil, out, nil
	})
}

func describeAgent(md agent.Metadata) agentInfo {
	return agentInfo{
		Name:                md.Name,
		DisplayName:         md.DisplayName,
		Description:         md.Description,
		SupportedExtensions: md.SupportedExtensions,
	}
}

// ===== APPLICABLE AGENTS =====

type applicableAgentsInput struct {
	FilePath string `json:"file_path" jsonschema:"required,Path to resolve applicable agents for"`
}

type applicableAgentsOutput struct {
	FilePath string   `json:"file_path" jsonschema:"Validated file path"`
	Agents   []string `json:"agents" jsonschema:"Names of agents that would run for this file"`
	Count    int      `json:"count" jsonschema:"Number of applicable agents"`
}

func (s *Server) registerApplicableAgentsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_applicable_agents",
		Description: "Resolve which checking agents apply to a file without running them",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args applicableAgentsInput) (*mcp.CallToolResult, applicableAgentsOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "get_applicable_agents")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "get_applicable_agents")
			s.metrics.RecordInvocation(ctx, "get_applicable_agents", time.Since(start), toolErr)
		}()

		validPath, err := sanitize.ValidatePath(args.FilePath, s.projectRoot)
		if err != nil {
			toolErr = fmt.Errorf("invalid file_path: %w", err)
			return toolError("get_applicable_agents", toolErr), applicableAgentsOutput{}, nil
		}

		names := s.registry.Applicable(validPath)
		return nil, applicableAgentsOutput{
			FilePath: validPath,
			Agents:   names,
			Count:    len(names),
		}, nil
	})
}
