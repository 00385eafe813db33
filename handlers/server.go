// ABOUTME: MCP server assembly
// ABOUTME: Registers every CRM tool, resource, and prompt on one server
package handlers

import (
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ServerOptions struct {
	Name    string
	Version string
	Metrics viz.MetricsConfig
}

// NewServer builds an MCP server over svc. store backs the query_crm tool.
func NewServer(svc *services.Services, store recordstore.Store, opts ServerOptions) *mcp.Server {
	if opts.Name == "" {
		opts.Name = "dealdeck"
	}
	if opts.Version == "" {
		opts.Version = "0.1.0"
	}
	if len(opts.Metrics.StageNames) == 0 {
		opts.Metrics = viz.DefaultMetricsConfig()
	}

	contactHandlers := NewContactHandlers(svc)
	dealHandlers := NewDealHandlers(svc)
	dashboardHandlers := NewDashboardHandlers(svc, opts.Metrics)
	vizHandlers := NewVizHandlers(svc)
	queryHandlers := NewQueryHandlers(store)
	resourceHandlers := NewResourceHandlers(svc, opts.Metrics)
	promptHandlers := NewPromptHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    opts.Name,
		Version: opts.Version,
	}, nil)

	// Contacts
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact to the CRM",
	}, contactHandlers.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search for contacts by name, email, or company and filter by status",
	}, contactHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_contact",
		Description: "Get a contact with their deals and activity history",
	}, contactHandlers.GetContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update an existing contact's information",
	}, contactHandlers.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact from the CRM",
	}, contactHandlers.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_activity",
		Description: "Log an email, call, meeting, or note and update the contact's last contact date",
	}, contactHandlers.LogActivity)

	// Deals
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a new deal in the pipeline",
	}, dealHandlers.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_deals",
		Description: "List deals filtered by stage or contact",
	}, dealHandlers.FindDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update a deal's title, value, probability, close date, or notes",
	}, dealHandlers.UpdateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_deal_stage",
		Description: "Move a deal to another pipeline stage",
	}, dealHandlers.MoveDealStage)

	// Overview
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Get pipeline totals, stage breakdown, and recent activity",
	}, dashboardHandlers.GetDashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_stages",
		Description: "List pipeline stages in board order",
	}, dashboardHandlers.ListStages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_activities",
		Description: "List recent activities, optionally for one contact or deal",
	}, dashboardHandlers.ListActivities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_crm",
		Description: "Run a filtered, sorted, paged query against contacts, deals, activities, or stages",
	}, queryHandlers.QueryCRM)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz graph of the pipeline or of one contact",
	}, vizHandlers.GenerateGraph)

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	for _, t := range resourceHandlers.Templates() {
		server.AddResourceTemplate(t, resourceHandlers.ReadResource)
	}
	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}
