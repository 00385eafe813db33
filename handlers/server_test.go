// ABOUTME: Tests for the assembled MCP server and its resources and prompts
// ABOUTME: Connects a client over in-memory transports and drives real protocol calls
package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/harperreed/dealdeck/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func connectTestClient(t *testing.T) *mcp.ClientSession {
	t.Helper()
	svc, store := setupTestServices(t)
	server := NewServer(svc, store, ServerOptions{})

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServerListsTools(t *testing.T) {
	session := connectTestClient(t)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	names := make(map[string]bool, len(res.Tools))
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"add_contact", "find_contacts", "move_deal_stage", "get_dashboard", "query_crm", "generate_graph"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
}

func TestServerCallTool(t *testing.T) {
	session := connectTestClient(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "find_contacts",
		Arguments: map[string]any{"status": "lead"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool returned an error: %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("expected text content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}

	var out FindContactsOutput
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if out.Count != 3 {
		t.Errorf("expected 3 leads, got %d", out.Count)
	}
}

func TestServerReadResource(t *testing.T) {
	session := connectTestClient(t)
	ctx := context.Background()

	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "crm://stages"})
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	var stages []StageOutput
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &stages); err != nil {
		t.Fatalf("failed to decode stages: %v", err)
	}
	if len(stages) != 4 || stages[0].Name != "Discovery" {
		t.Errorf("unexpected stages %+v", stages)
	}

	res, err = session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "crm://contacts/1"})
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, "Sarah Johnson") {
		t.Errorf("contact resource should include the contact, got %s", res.Contents[0].Text)
	}
}

func TestServerGetPrompt(t *testing.T) {
	session := connectTestClient(t)

	res, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "contact-summary",
		Arguments: map[string]string{"contact_id": "1"},
	})
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "Sarah Johnson") || !strings.Contains(text, "Enterprise Platform License") {
		t.Errorf("prompt should describe the contact and deals, got:\n%s", text)
	}
}

func TestReadPipelineResource(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewResourceHandlers(svc, viz.DefaultMetricsConfig())

	out, err := handler.readPipeline(context.Background())
	if err != nil {
		t.Fatalf("readPipeline failed: %v", err)
	}
	if out.DealCount != 8 || out.TotalValue != 428000 {
		t.Errorf("expected 8 deals worth 428000, got %d worth %v", out.DealCount, out.TotalValue)
	}
	if len(out.Stages) != 4 || out.Stages[0].Value != 42000 {
		t.Errorf("unexpected stage breakdown %+v", out.Stages)
	}
}

func TestReadResourceErrors(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewResourceHandlers(svc, viz.DefaultMetricsConfig())
	ctx := context.Background()

	for _, uri := range []string{"http://contacts", "crm://companies", "crm://contacts/abc", "crm://deals/999"} {
		req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
		if _, err := handler.ReadResource(ctx, req); err == nil {
			t.Errorf("expected error for %s", uri)
		}
	}
}

func TestDashboardHandler(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewDashboardHandlers(svc, viz.DefaultMetricsConfig())

	_, out, err := handler.GetDashboard(context.Background(), nil, DashboardInput{Recent: 3})
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	if out.TotalContacts != 8 || out.ActiveDeals != 8 {
		t.Errorf("unexpected counts %+v", out)
	}
	if out.Summary != "$428K total value across 8 deals" {
		t.Errorf("unexpected summary %q", out.Summary)
	}
	if len(out.RecentActivities) != 3 {
		t.Errorf("expected 3 recent activities, got %d", len(out.RecentActivities))
	}
}

func TestPromptsRequireArguments(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewPromptHandlers(svc)
	ctx := context.Background()

	for _, name := range []string{"contact-summary", "deal-analysis"} {
		req := &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: name}}
		if _, err := handler.GetPrompt(ctx, req); err == nil {
			t.Errorf("%s should require an id", name)
		}
	}

	req := &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "follow-up-suggestions", Arguments: map[string]string{"days": "14"}}}
	res, err := handler.GetPrompt(ctx, req)
	if err != nil {
		t.Fatalf("follow-up-suggestions failed: %v", err)
	}
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	if strings.Contains(text, "David Park") {
		t.Error("inactive contacts should not be suggested")
	}
	if !strings.Contains(text, "Sarah Johnson") {
		t.Error("stale active contacts should be suggested")
	}
}

func TestGenerateGraphHandler(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewVizHandlers(svc)
	ctx := context.Background()

	_, out, err := handler.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline"})
	if err != nil {
		t.Fatalf("GenerateGraph failed: %v", err)
	}
	if !strings.Contains(out.Source, "digraph") {
		t.Errorf("expected DOT output, got %s", out.Source)
	}

	if _, _, err := handler.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "contact"}); err == nil {
		t.Error("contact graph should require entity_id")
	}
	if _, _, err := handler.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline", Format: "png"}); err == nil {
		t.Error("png should be rejected")
	}
}
