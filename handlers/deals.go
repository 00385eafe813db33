// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements create_deal, find_deals, update_deal, and move_deal_stage
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DealHandlers struct {
	svc *services.Services
}

func NewDealHandlers(svc *services.Services) *DealHandlers {
	return &DealHandlers{svc: svc}
}

type CreateDealInput struct {
	Title             string  `json:"title" jsonschema:"Deal title (required)"`
	Value             float64 `json:"value,omitempty" jsonschema:"Deal value in dollars"`
	Stage             string  `json:"stage,omitempty" jsonschema:"Pipeline stage (default discovery)"`
	Probability       int     `json:"probability,omitempty" jsonschema:"Win probability from 0 to 100"`
	ContactID         int64   `json:"contact_id,omitempty" jsonschema:"Contact the deal belongs to"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty" jsonschema:"Expected close date (YYYY-MM-DD)"`
	Notes             string  `json:"notes,omitempty" jsonschema:"Notes about the deal"`
}

func parseCloseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid expected_close_date %q (want YYYY-MM-DD): %w", s, err)
	}
	return &t, nil
}

func (h *DealHandlers) CreateDeal(ctx context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	closeDate, err := parseCloseDate(input.ExpectedCloseDate)
	if err != nil {
		return nil, DealOutput{}, err
	}

	contactName := ""
	if input.ContactID != 0 {
		c, err := h.svc.Contacts.GetByID(ctx, input.ContactID)
		if err != nil {
			return nil, DealOutput{}, err
		}
		contactName = c.Name
	}

	created, err := h.svc.Deals.Create(ctx, models.Deal{
		Title:             input.Title,
		Value:             input.Value,
		Stage:             input.Stage,
		Probability:       input.Probability,
		ContactID:         input.ContactID,
		ExpectedCloseDate: closeDate,
		Notes:             input.Notes,
	})
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}
	return nil, dealToOutput(*created, contactName), nil
}

type FindDealsInput struct {
	Stage     string `json:"stage,omitempty" jsonschema:"Only deals in this stage"`
	ContactID int64  `json:"contact_id,omitempty" jsonschema:"Only deals for this contact"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

// FindDealsOutput lists at most Limit deals. Count and TotalValue cover every match.
type FindDealsOutput struct {
	Deals      []DealOutput `json:"deals"`
	Count      int          `json:"count"`
	TotalValue float64      `json:"total_value"`
}

func (h *DealHandlers) FindDeals(ctx context.Context, _ *mcp.CallToolRequest, input FindDealsInput) (*mcp.CallToolResult, FindDealsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}

	var (
		deals []models.Deal
		err   error
	)
	if input.ContactID != 0 {
		deals, err = h.svc.Deals.GetByContactID(ctx, input.ContactID)
	} else {
		deals, err = h.svc.Deals.GetAll(ctx)
	}
	if err != nil {
		return nil, FindDealsOutput{}, fmt.Errorf("failed to find deals: %w", err)
	}
	contacts, err := h.svc.Contacts.GetAll(ctx)
	if err != nil {
		return nil, FindDealsOutput{}, fmt.Errorf("failed to load contacts: %w", err)
	}

	stage := strings.ToLower(strings.TrimSpace(input.Stage))
	matched := make([]models.Deal, 0, len(deals))
	count := 0
	var total float64
	for _, d := range deals {
		if stage != "" && strings.ToLower(d.Stage) != stage {
			continue
		}
		count++
		total += d.Value
		if len(matched) < limit {
			matched = append(matched, d)
		}
	}

	return nil, FindDealsOutput{
		Deals:      dealsToOutput(matched, services.ContactNames(contacts)),
		Count:      count,
		TotalValue: total,
	}, nil
}

type UpdateDealInput struct {
	ID                int64    `json:"id" jsonschema:"Deal ID (required)"`
	Title             string   `json:"title,omitempty" jsonschema:"Updated title"`
	Value             *float64 `json:"value,omitempty" jsonschema:"Updated value"`
	Probability       *int     `json:"probability,omitempty" jsonschema:"Updated win probability"`
	ExpectedCloseDate string   `json:"expected_close_date,omitempty" jsonschema:"Updated close date (YYYY-MM-DD)"`
	Notes             string   `json:"notes,omitempty" jsonschema:"Updated notes"`
}

// UpdateDeal changes deal details. Stage changes go through move_deal_stage.
func (h *DealHandlers) UpdateDeal(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	existing, err := h.svc.Deals.GetByID(ctx, input.ID)
	if err != nil {
		return nil, DealOutput{}, err
	}
	closeDate, err := parseCloseDate(input.ExpectedCloseDate)
	if err != nil {
		return nil, DealOutput{}, err
	}

	d := *existing
	if input.Title != "" {
		d.Title = input.Title
	}
	if input.Value != nil {
		d.Value = *input.Value
	}
	if input.Probability != nil {
		if *input.Probability < 0 || *input.Probability > 100 {
			return nil, DealOutput{}, fmt.Errorf("%w: probability must be between 0 and 100", services.ErrInvalidInput)
		}
		d.Probability = *input.Probability
	}
	if closeDate != nil {
		d.ExpectedCloseDate = closeDate
	}
	if input.Notes != "" {
		d.Notes = input.Notes
	}

	updated, err := h.svc.Deals.Update(ctx, d)
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to update deal: %w", err)
	}
	return nil, dealToOutput(*updated, ""), nil
}

type MoveDealStageInput struct {
	ID    int64  `json:"id" jsonschema:"Deal ID (required)"`
	Stage string `json:"stage" jsonschema:"Target stage name (required)"`
}

type MoveDealStageOutput struct {
	ID      int64  `json:"id"`
	Stage   string `json:"stage"`
	Moved   bool   `json:"moved"`
	Message string `json:"message"`
}

// MoveDealStage drops a deal onto a stage the same way the kanban board does.
func (h *DealHandlers) MoveDealStage(ctx context.Context, _ *mcp.CallToolRequest, input MoveDealStageInput) (*mcp.CallToolResult, MoveDealStageOutput, error) {
	data, err := h.svc.LoadPipeline(ctx)
	if err != nil {
		return nil, MoveDealStageOutput{}, err
	}
	b := board.FromPipeline(h.svc.Deals, data)
	before, ok := b.Deal(input.ID)
	if !ok {
		return nil, MoveDealStageOutput{}, fmt.Errorf("%w: %d", services.ErrDealNotFound, input.ID)
	}

	notice, err := b.Drop(ctx, input.ID, input.Stage)
	if err != nil {
		return nil, MoveDealStageOutput{}, err
	}
	after, _ := b.Deal(input.ID)

	out := MoveDealStageOutput{
		ID:      input.ID,
		Stage:   after.Stage,
		Moved:   !notice.IsZero(),
		Message: notice.Message,
	}
	if !out.Moved {
		out.Message = fmt.Sprintf("Deal already in %s", strings.ToLower(before.Stage))
	}
	return nil, out, nil
}
