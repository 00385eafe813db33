// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Provides standardized prompts for contact summaries, deal analysis, pipeline review, and follow-ups
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultFollowUpDays = 30

type PromptHandlers struct {
	svc *services.Services
}

func NewPromptHandlers(svc *services.Services) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// Prompts lists the prompt templates the server advertises.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "contact-summary",
			Description: "Summarize a contact with their deals and activity history",
			Arguments: []*mcp.PromptArgument{
				{Name: "contact_id", Description: "Contact ID", Required: true},
			},
		},
		{
			Name:        "deal-analysis",
			Description: "Analyze a single deal and suggest how to advance it",
			Arguments: []*mcp.PromptArgument{
				{Name: "deal_id", Description: "Deal ID", Required: true},
			},
		},
		{
			Name:        "pipeline-review",
			Description: "Review pipeline health across all stages",
		},
		{
			Name:        "follow-up-suggestions",
			Description: "Suggest contacts that need a follow-up",
			Arguments: []*mcp.PromptArgument{
				{Name: "days", Description: "Days since last contact (default 30)"},
			},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "contact-summary":
		return h.getContactSummaryPrompt(ctx, arguments)
	case "deal-analysis":
		return h.getDealAnalysisPrompt(ctx, arguments)
	case "pipeline-review":
		return h.getPipelineReviewPrompt(ctx)
	case "follow-up-suggestions":
		return h.getFollowUpSuggestionsPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func requiredID(args map[string]string, key string) (int64, error) {
	raw, ok := args[key]
	if !ok || raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	id, err := parseID(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}

func (h *PromptHandlers) getContactSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	contactID, err := requiredID(args, "contact_id")
	if err != nil {
		return nil, err
	}
	detail, err := h.svc.LoadContactDetail(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	c := detail.Contact

	var promptText strings.Builder
	promptText.WriteString("Please provide a comprehensive summary of this contact:\n\n")
	fmt.Fprintf(&promptText, "Name: %s\n", c.Name)
	fmt.Fprintf(&promptText, "Status: %s\n", c.Status)
	if c.Email != "" {
		fmt.Fprintf(&promptText, "Email: %s\n", c.Email)
	}
	if c.Phone != "" {
		fmt.Fprintf(&promptText, "Phone: %s\n", c.Phone)
	}
	if c.Company != "" {
		fmt.Fprintf(&promptText, "Company: %s\n", c.Company)
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(&promptText, "Tags: %s\n", strings.Join(c.Tags, ", "))
	}
	if !c.LastContactDate.IsZero() {
		fmt.Fprintf(&promptText, "Last Contacted: %s\n", c.LastContactDate.Format("2006-01-02"))
	}
	if c.Notes != "" {
		fmt.Fprintf(&promptText, "\nNotes: %s\n", c.Notes)
	}

	if len(detail.Deals) > 0 {
		promptText.WriteString("\nDeals:\n")
		for _, d := range detail.Deals {
			fmt.Fprintf(&promptText, "  - %s: %s, %s (%d%%)\n", d.Title, viz.FormatCurrency(d.Value), d.Stage, d.Probability)
		}
	}
	if len(detail.Activities) > 0 {
		promptText.WriteString("\nRecent Activity:\n")
		for _, a := range detail.Activities {
			fmt.Fprintf(&promptText, "  - %s [%s] %s\n", a.Timestamp.Format("2006-01-02"), a.Type, a.Description)
		}
	}

	promptText.WriteString("\nPlease analyze this contact and provide:")
	promptText.WriteString("\n1. A brief summary of their role and relationship with us")
	promptText.WriteString("\n2. Recommendations for next steps or follow-up actions")
	promptText.WriteString("\n3. Any patterns or insights from their interaction history")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", c.Name), promptText.String()), nil
}

func (h *PromptHandlers) getDealAnalysisPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	dealID, err := requiredID(args, "deal_id")
	if err != nil {
		return nil, err
	}
	d, err := h.svc.Deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal: %w", err)
	}
	activities, err := h.svc.Activities.GetByDealID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal activity: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please analyze this deal:\n\n")
	fmt.Fprintf(&promptText, "Title: %s\n", d.Title)
	fmt.Fprintf(&promptText, "Value: %s\n", viz.FormatCurrency(d.Value))
	fmt.Fprintf(&promptText, "Stage: %s\n", d.Stage)
	fmt.Fprintf(&promptText, "Probability: %d%%\n", d.Probability)
	fmt.Fprintf(&promptText, "Days in Stage: %d\n", d.DaysInStage(h.svc.Now()))
	if d.ContactID != 0 {
		name := models.UnknownContactName
		if c, err := h.svc.Contacts.GetByID(ctx, d.ContactID); err == nil {
			name = c.Name
		}
		fmt.Fprintf(&promptText, "Contact: %s\n", name)
	}
	if d.ExpectedCloseDate != nil {
		fmt.Fprintf(&promptText, "Expected Close: %s\n", d.ExpectedCloseDate.Format("2006-01-02"))
	}
	if d.Notes != "" {
		fmt.Fprintf(&promptText, "\nNotes: %s\n", d.Notes)
	}
	if len(activities) > 0 {
		promptText.WriteString("\nActivity:\n")
		for _, a := range activities {
			fmt.Fprintf(&promptText, "  - %s [%s] %s\n", a.Timestamp.Format("2006-01-02"), a.Type, a.Description)
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. An assessment of how likely this deal is to close")
	promptText.WriteString("\n2. Risks that could stall it in its current stage")
	promptText.WriteString("\n3. Concrete next steps to move it forward")

	return userPrompt(fmt.Sprintf("Analysis for deal: %s", d.Title), promptText.String()), nil
}

func (h *PromptHandlers) getPipelineReviewPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	data, err := h.svc.LoadPipeline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pipeline: %w", err)
	}

	var total float64
	for _, d := range data.Deals {
		total += d.Value
	}

	var promptText strings.Builder
	promptText.WriteString("Please review the current deal pipeline:\n\n")
	fmt.Fprintf(&promptText, "Total Deals: %d\n", len(data.Deals))
	fmt.Fprintf(&promptText, "Total Value: %s\n\n", viz.FormatCurrency(total))
	promptText.WriteString("Pipeline by Stage:\n")
	for _, st := range data.Stages {
		count := 0
		var value float64
		for _, d := range data.Deals {
			if strings.EqualFold(d.Stage, st.Key()) {
				count++
				value += d.Value
			}
		}
		fmt.Fprintf(&promptText, "  - %s: %d deals, %s\n", st.Name, count, viz.FormatCurrency(value))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Analysis of pipeline health and distribution")
	promptText.WriteString("\n2. Recommendations for deals that may need attention")
	promptText.WriteString("\n3. Suggestions for improving conversion rates")

	return userPrompt("Deal pipeline review", promptText.String()), nil
}

func (h *PromptHandlers) getFollowUpSuggestionsPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	days := defaultFollowUpDays
	if raw := args["days"]; raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &days); err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid days: %q", raw)
		}
	}

	contacts, err := h.svc.Contacts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	cutoff := h.svc.Now().Add(-time.Duration(days) * 24 * time.Hour)
	var stale []models.Contact
	for _, c := range contacts {
		if c.Status == models.StatusInactive {
			continue
		}
		if c.LastContactDate.IsZero() || c.LastContactDate.Before(cutoff) {
			stale = append(stale, c)
		}
	}
	sort.SliceStable(stale, func(i, j int) bool {
		return stale[i].LastContactDate.Before(stale[j].LastContactDate)
	})

	var promptText strings.Builder
	fmt.Fprintf(&promptText, "These contacts have not been contacted in over %d days:\n\n", days)
	if len(stale) == 0 {
		promptText.WriteString("(none)\n")
	}
	for _, c := range stale {
		last := "never"
		if !c.LastContactDate.IsZero() {
			last = c.LastContactDate.Format("2006-01-02")
		}
		fmt.Fprintf(&promptText, "  - %s (%s, %s), last contacted %s\n", c.Name, c.Status, c.Company, last)
	}

	promptText.WriteString("\nPlease suggest:")
	promptText.WriteString("\n1. Which contacts to prioritize and why")
	promptText.WriteString("\n2. A short, personalized follow-up message for each")

	return userPrompt("Follow-up suggestions", promptText.String()), nil
}
