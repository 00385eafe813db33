// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	svc *services.Services
}

func NewVizHandlers(svc *services.Services) *VizHandlers {
	return &VizHandlers{svc: svc}
}

type GenerateGraphInput struct {
	Type     string `json:"type" jsonschema:"Graph type: pipeline or contact"`
	EntityID int64  `json:"entity_id,omitempty" jsonschema:"Contact ID (required for contact graphs)"`
	Format   string `json:"format,omitempty" jsonschema:"Output format: dot or svg (default dot)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	Format    string `json:"format"`
	Source    string `json:"source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}
	format, err := viz.ParseFormat(input.Format)
	if err != nil {
		return nil, GenerateGraphOutput{}, err
	}

	generator := viz.NewGraphGenerator(h.svc)
	var out string

	switch input.Type {
	case "pipeline":
		out, err = generator.GeneratePipelineGraph(ctx, format)
	case "contact":
		if input.EntityID == 0 {
			return nil, GenerateGraphOutput{}, fmt.Errorf("entity_id required for contact graph")
		}
		out, err = generator.GenerateContactGraph(ctx, input.EntityID, format)
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, contact)", input.Type)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	name := strings.ToLower(input.Format)
	if name == "" {
		name = "dot"
	}
	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		Format:    name,
		Source:    out,
		NodeCount: strings.Count(out, "label="),
		EdgeCount: strings.Count(out, "->"),
	}, nil
}
