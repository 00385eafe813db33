// ABOUTME: Dashboard and listing MCP tool handlers
// ABOUTME: Implements get_dashboard, list_stages, and list_activities
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DashboardHandlers struct {
	svc *services.Services
	cfg viz.MetricsConfig
}

func NewDashboardHandlers(svc *services.Services, cfg viz.MetricsConfig) *DashboardHandlers {
	return &DashboardHandlers{svc: svc, cfg: cfg}
}

type DashboardInput struct {
	Recent int `json:"recent,omitempty" jsonschema:"Number of recent activities to include (default 10)"`
}

type StageTotalOutput struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type RecentActivityOutput struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	ContactName string `json:"contact_name,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type DashboardOutput struct {
	TotalContacts    int                    `json:"total_contacts"`
	TotalDeals       int                    `json:"total_deals"`
	ActiveDeals      int                    `json:"active_deals"`
	PipelineValue    float64                `json:"pipeline_value"`
	AverageDealSize  float64                `json:"average_deal_size"`
	ConversionRate   float64                `json:"conversion_rate"`
	StageTotals      []StageTotalOutput     `json:"stage_totals"`
	RecentActivities []RecentActivityOutput `json:"recent_activities"`
	Summary          string                 `json:"summary"`
}

func (h *DashboardHandlers) dashboard(ctx context.Context, recent int) (DashboardOutput, error) {
	if recent <= 0 {
		recent = services.DefaultRecentLimit
	}
	data, err := h.svc.LoadDashboard(ctx, recent)
	if err != nil {
		return DashboardOutput{}, err
	}
	m := viz.ComputeDashboard(data, h.cfg)

	out := DashboardOutput{
		TotalContacts:    m.TotalContacts,
		TotalDeals:       m.TotalDeals,
		ActiveDeals:      m.ActiveDeals,
		PipelineValue:    m.PipelineValue,
		AverageDealSize:  m.AverageDealSize,
		ConversionRate:   m.ConversionRate,
		StageTotals:      make([]StageTotalOutput, len(m.StageTotals)),
		RecentActivities: make([]RecentActivityOutput, len(m.RecentActivities)),
		Summary:          fmt.Sprintf("%s total value across %d deals", viz.FormatThousands(m.PipelineValue), m.TotalDeals),
	}
	for i, st := range m.StageTotals {
		out.StageTotals[i] = StageTotalOutput{Stage: st.Stage, Count: st.Count, Value: st.Value}
	}
	for i, a := range m.RecentActivities {
		out.RecentActivities[i] = RecentActivityOutput{
			Type:        a.Type,
			Description: a.Description,
			ContactName: a.ContactName,
			Timestamp:   formatTime(a.Timestamp),
		}
	}
	return out, nil
}

func (h *DashboardHandlers) GetDashboard(ctx context.Context, _ *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	out, err := h.dashboard(ctx, input.Recent)
	if err != nil {
		return nil, DashboardOutput{}, err
	}
	return nil, out, nil
}

type ListStagesInput struct{}

type ListStagesOutput struct {
	Stages []StageOutput `json:"stages"`
}

func (h *DashboardHandlers) ListStages(ctx context.Context, _ *mcp.CallToolRequest, _ ListStagesInput) (*mcp.CallToolResult, ListStagesOutput, error) {
	stages, err := h.svc.Stages.GetAll(ctx)
	if err != nil {
		return nil, ListStagesOutput{}, fmt.Errorf("failed to list stages: %w", err)
	}
	return nil, ListStagesOutput{Stages: stagesToOutput(stages)}, nil
}

type ListActivitiesInput struct {
	ContactID int64 `json:"contact_id,omitempty" jsonschema:"Only activities for this contact"`
	DealID    int64 `json:"deal_id,omitempty" jsonschema:"Only activities for this deal"`
	Limit     int   `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type ListActivitiesOutput struct {
	Activities []ActivityOutput `json:"activities"`
	Count      int              `json:"count"`
}

func (h *DashboardHandlers) ListActivities(ctx context.Context, _ *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ListActivitiesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}

	var (
		activities []models.Activity
		err        error
	)
	switch {
	case input.ContactID != 0:
		activities, err = h.svc.Activities.GetByContactID(ctx, input.ContactID)
	case input.DealID != 0:
		activities, err = h.svc.Activities.GetByDealID(ctx, input.DealID)
	default:
		activities, err = h.svc.Activities.GetRecent(ctx, limit)
	}
	if err != nil {
		return nil, ListActivitiesOutput{}, fmt.Errorf("failed to list activities: %w", err)
	}
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return nil, ListActivitiesOutput{
		Activities: activitiesToOutput(activities),
		Count:      len(activities),
	}, nil
}
