// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only JSON views of contacts, deals, stages, pipeline, and dashboard via crm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "crm://"

type ResourceHandlers struct {
	svc       *services.Services
	dashboard *DashboardHandlers
}

func NewResourceHandlers(svc *services.Services, cfg viz.MetricsConfig) *ResourceHandlers {
	return &ResourceHandlers{svc: svc, dashboard: NewDashboardHandlers(svc, cfg)}
}

// Resources lists the fixed resources the server advertises.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: "crm://contacts", Name: "contacts", Description: "All contacts", MIMEType: "application/json"},
		{URI: "crm://deals", Name: "deals", Description: "All deals with contact names", MIMEType: "application/json"},
		{URI: "crm://stages", Name: "stages", Description: "Pipeline stages in board order", MIMEType: "application/json"},
		{URI: "crm://pipeline", Name: "pipeline", Description: "Deals grouped by stage with stage totals", MIMEType: "application/json"},
		{URI: "crm://dashboard", Name: "dashboard", Description: "Dashboard metrics and recent activity", MIMEType: "application/json"},
	}
}

// Templates lists the parameterized resources the server advertises.
func (h *ResourceHandlers) Templates() []*mcp.ResourceTemplate {
	return []*mcp.ResourceTemplate{
		{URITemplate: "crm://contacts/{id}", Name: "contact", Description: "A contact with its deals and activities", MIMEType: "application/json"},
		{URITemplate: "crm://deals/{id}", Name: "deal", Description: "A single deal", MIMEType: "application/json"},
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	var (
		payload any
		err     error
	)

	switch parts[0] {
	case "contacts":
		if len(parts) == 1 {
			payload, err = h.readAllContacts(ctx)
		} else {
			payload, err = h.readContact(ctx, parts[1])
		}
	case "deals":
		if len(parts) == 1 {
			payload, err = h.readAllDeals(ctx)
		} else {
			payload, err = h.readDeal(ctx, parts[1])
		}
	case "stages":
		var stages []StageOutput
		stages, err = h.readStages(ctx)
		payload = stages
	case "pipeline":
		payload, err = h.readPipeline(ctx)
	case "dashboard":
		payload, err = h.dashboard.dashboard(ctx, 0)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (h *ResourceHandlers) readAllContacts(ctx context.Context) ([]ContactOutput, error) {
	contacts, err := h.svc.Contacts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts: %w", err)
	}
	return contactsToOutput(contacts), nil
}

func (h *ResourceHandlers) readContact(ctx context.Context, raw string) (ContactDetailOutput, error) {
	id, err := parseID(raw)
	if err != nil {
		return ContactDetailOutput{}, err
	}
	detail, err := h.svc.LoadContactDetail(ctx, id)
	if err != nil {
		return ContactDetailOutput{}, err
	}
	return ContactDetailOutput{
		Contact:    contactToOutput(detail.Contact),
		Deals:      dealsToOutput(detail.Deals, nil),
		Activities: activitiesToOutput(detail.Activities),
	}, nil
}

func (h *ResourceHandlers) readAllDeals(ctx context.Context) ([]DealOutput, error) {
	data, err := h.svc.LoadPipeline(ctx)
	if err != nil {
		return nil, err
	}
	return dealsToOutput(data.Deals, services.ContactNames(data.Contacts)), nil
}

func (h *ResourceHandlers) readDeal(ctx context.Context, raw string) (DealOutput, error) {
	id, err := parseID(raw)
	if err != nil {
		return DealOutput{}, err
	}
	d, err := h.svc.Deals.GetByID(ctx, id)
	if err != nil {
		return DealOutput{}, err
	}
	name := ""
	if d.ContactID != 0 {
		name = models.UnknownContactName
		if c, err := h.svc.Contacts.GetByID(ctx, d.ContactID); err == nil {
			name = c.Name
		}
	}
	return dealToOutput(*d, name), nil
}

func (h *ResourceHandlers) readStages(ctx context.Context) ([]StageOutput, error) {
	stages, err := h.svc.Stages.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stages: %w", err)
	}
	return stagesToOutput(stages), nil
}

type PipelineStageOutput struct {
	Stage StageOutput  `json:"stage"`
	Deals []DealOutput `json:"deals"`
	Count int          `json:"count"`
	Value float64      `json:"value"`
}

type PipelineOutput struct {
	Stages     []PipelineStageOutput `json:"stages"`
	TotalValue float64               `json:"total_value"`
	DealCount  int                   `json:"deal_count"`
}

func (h *ResourceHandlers) readPipeline(ctx context.Context) (PipelineOutput, error) {
	data, err := h.svc.LoadPipeline(ctx)
	if err != nil {
		return PipelineOutput{}, err
	}
	names := services.ContactNames(data.Contacts)

	out := PipelineOutput{Stages: []PipelineStageOutput{}, DealCount: len(data.Deals)}
	for _, st := range data.Stages {
		deals := []models.Deal{}
		var total float64
		for _, d := range data.Deals {
			if strings.EqualFold(d.Stage, st.Key()) {
				deals = append(deals, d)
				total += d.Value
			}
		}
		out.Stages = append(out.Stages, PipelineStageOutput{
			Stage: StageOutput{ID: st.ID, Name: st.Name, Order: st.Order, Color: st.Color},
			Deals: dealsToOutput(deals, names),
			Count: len(deals),
			Value: total,
		})
	}
	for _, d := range data.Deals {
		out.TotalValue += d.Value
	}
	return out, nil
}
