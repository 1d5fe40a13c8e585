package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/meshcheck/pkg/diagram"
	"github.com/ormasoftchile/meshcheck/pkg/logger"
	"github.com/ormasoftchile/meshcheck/pkg/report"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/store"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// HandleValidate implements the meshcheck/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	sol, err := solution.LoadFile(path)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to load: %s", err)), nil
	}
	opts := []validate.Option{validate.WithLogger(logger.G(ctx))}
	if root, _ := args["store"].(string); root != "" {
		dc, err := store.New(root, store.WithLogger(logger.G(ctx))).DeployContext(ctx, sol)
		if err != nil {
			return errorResult(fmt.Sprintf("deploy context: %s", err)), nil
		}
		opts = append(opts, validate.WithDeployContext(dc))
	}

	res, err := validate.ValidateSolution(sol, opts...)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if res.Valid {
		name := sol.ID
		if name == "" {
			name = path
		}
		msg := fmt.Sprintf("✓ %s is valid (%d skills, %d handoffs)", name, res.Summary.Skills, res.Summary.Handoffs)
		if len(res.Warnings) > 0 {
			msg += "\n" + formatIssues(res.Warnings)
		}
		return textResult(msg), nil
	}
	return jsonResult(res, true)
}

// HandleReport implements the meshcheck/report MCP tool.
func HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	root, _ := args["store"].(string)
	id, _ := args["solution"].(string)
	if root == "" || id == "" {
		return errorResult("store and solution arguments are required"), nil
	}

	st := store.New(root, store.WithLogger(logger.G(ctx)))
	sol, err := st.LoadSolution(id)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	dc, err := st.DeployContext(ctx, sol)
	if err != nil {
		return errorResult(fmt.Sprintf("deploy context: %s", err)), nil
	}
	r, err := report.Generate(sol, report.Input{Skills: dc.Skills},
		validate.WithDeployContext(dc), validate.WithLogger(logger.G(ctx)))
	if err != nil {
		return errorResult(err.Error()), nil
	}

	gate, _ := args["gate"].(string)
	if gate == "" {
		return jsonResult(r, r.Summary.Status == report.StatusError)
	}
	pass, err := report.Gate(gate, r)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"gate": gate, "passed": pass, "report": r}, !pass)
}

// HandleSchema implements the meshcheck/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	schemaType, _ := args["type"].(string)

	var data []byte
	var err error

	switch schemaType {
	case "solution":
		data, err = solution.GenerateJSONSchema()
	case "skill":
		data, err = solution.GenerateSkillJSONSchema()
	default:
		return errorResult(fmt.Sprintf("unknown schema type %q: use 'solution' or 'skill'", schemaType)), nil
	}

	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleDiagram implements the meshcheck/diagram MCP tool.
func HandleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	raw, _ := args["format"].(string)
	format, err := diagram.ParseFormat(raw)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	sol, err := solution.LoadFile(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	out, err := diagram.Generate(sol, format)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(out), nil
}

func formatIssues(issues []validate.Issue) string {
	msgs := make([]string, 0, len(issues))
	for _, is := range issues {
		msgs = append(msgs, fmt.Sprintf("%s %s", is.Severity, is))
	}
	return strings.Join(msgs, "\n")
}

func jsonResult(v any, isErr bool) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: isErr,
	}, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
