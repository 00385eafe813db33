// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add_contact, find_contacts, get_contact, update_contact, delete_contact, and log_activity
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultFindLimit = 10

type ContactHandlers struct {
	svc *services.Services
}

func NewContactHandlers(svc *services.Services) *ContactHandlers {
	return &ContactHandlers{svc: svc}
}

type AddContactInput struct {
	Name    string   `json:"name" jsonschema:"Contact name (required)"`
	Email   string   `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone   string   `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Company string   `json:"company,omitempty" jsonschema:"Company the contact works for"`
	Status  string   `json:"status,omitempty" jsonschema:"active, inactive, or lead (default lead)"`
	Tags    []string `json:"tags,omitempty" jsonschema:"Free-form tags"`
	Notes   string   `json:"notes,omitempty" jsonschema:"Additional notes about the contact"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, _ *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	created, err := h.svc.Contacts.Create(ctx, models.Contact{
		Name:    input.Name,
		Email:   strings.TrimSpace(input.Email),
		Phone:   strings.TrimSpace(input.Phone),
		Company: strings.TrimSpace(input.Company),
		Status:  strings.ToLower(input.Status),
		Tags:    input.Tags,
		Notes:   input.Notes,
	})
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(*created), nil
}

type FindContactsInput struct {
	Query  string `json:"query,omitempty" jsonschema:"Search text matched against name, email, and company"`
	Status string `json:"status,omitempty" jsonschema:"all, active, inactive, or lead (default all)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
	Count    int             `json:"count"`
	Total    int             `json:"total"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	status := strings.ToLower(input.Status)
	if status == "" {
		status = models.StatusAll
	}
	if status != models.StatusAll && !models.IsValidStatus(status) {
		return nil, FindContactsOutput{}, fmt.Errorf("invalid status %q (valid: all, active, inactive, lead)", input.Status)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}

	all, err := h.svc.Contacts.GetAll(ctx)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}
	matched := services.FilterContacts(all, status, input.Query)
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return nil, FindContactsOutput{
		Contacts: contactsToOutput(matched),
		Count:    len(matched),
		Total:    len(all),
	}, nil
}

type ContactIDInput struct {
	ID int64 `json:"id" jsonschema:"Contact ID (required)"`
}

type ContactDetailOutput struct {
	Contact    ContactOutput    `json:"contact"`
	Deals      []DealOutput     `json:"deals"`
	Activities []ActivityOutput `json:"activities"`
}

func (h *ContactHandlers) GetContact(ctx context.Context, _ *mcp.CallToolRequest, input ContactIDInput) (*mcp.CallToolResult, ContactDetailOutput, error) {
	detail, err := h.svc.LoadContactDetail(ctx, input.ID)
	if err != nil {
		return nil, ContactDetailOutput{}, err
	}
	return nil, ContactDetailOutput{
		Contact:    contactToOutput(detail.Contact),
		Deals:      dealsToOutput(detail.Deals, nil),
		Activities: activitiesToOutput(detail.Activities),
	}, nil
}

type UpdateContactInput struct {
	ID      int64    `json:"id" jsonschema:"Contact ID (required)"`
	Name    string   `json:"name,omitempty" jsonschema:"Updated contact name"`
	Email   string   `json:"email,omitempty" jsonschema:"Updated email address"`
	Phone   string   `json:"phone,omitempty" jsonschema:"Updated phone number"`
	Company string   `json:"company,omitempty" jsonschema:"Updated company"`
	Status  string   `json:"status,omitempty" jsonschema:"Updated status"`
	Tags    []string `json:"tags,omitempty" jsonschema:"Replacement tag list"`
	Notes   string   `json:"notes,omitempty" jsonschema:"Updated notes"`
}

// UpdateContact applies the non-empty fields of input on top of the stored contact.
func (h *ContactHandlers) UpdateContact(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	existing, err := h.svc.Contacts.GetByID(ctx, input.ID)
	if err != nil {
		return nil, ContactOutput{}, err
	}

	c := *existing
	if input.Name != "" {
		c.Name = input.Name
	}
	if input.Email != "" {
		c.Email = input.Email
	}
	if input.Phone != "" {
		c.Phone = input.Phone
	}
	if input.Company != "" {
		c.Company = input.Company
	}
	if input.Status != "" {
		c.Status = strings.ToLower(input.Status)
	}
	if input.Tags != nil {
		c.Tags = input.Tags
	}
	if input.Notes != "" {
		c.Notes = input.Notes
	}

	updated, err := h.svc.Contacts.Update(ctx, c)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return nil, contactToOutput(*updated), nil
}

type DeleteOutput struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, _ *mcp.CallToolRequest, input ContactIDInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := h.svc.Contacts.Delete(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete contact %d: %w", input.ID, err)
	}
	return nil, DeleteOutput{ID: input.ID, Message: "Contact deleted successfully!"}, nil
}

type LogActivityInput struct {
	Type        string `json:"type,omitempty" jsonschema:"email, call, meeting, or other (default other)"`
	Description string `json:"description" jsonschema:"What happened (required)"`
	ContactID   int64  `json:"contact_id,omitempty" jsonschema:"Contact the activity belongs to"`
	DealID      int64  `json:"deal_id,omitempty" jsonschema:"Deal the activity belongs to"`
}

// LogActivity records an activity and bumps the contact's last contact date.
func (h *ContactHandlers) LogActivity(ctx context.Context, _ *mcp.CallToolRequest, input LogActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	var contact *models.Contact
	if input.ContactID != 0 {
		c, err := h.svc.Contacts.GetByID(ctx, input.ContactID)
		if err != nil {
			return nil, ActivityOutput{}, err
		}
		contact = c
	}
	if input.DealID != 0 {
		if _, err := h.svc.Deals.GetByID(ctx, input.DealID); err != nil {
			return nil, ActivityOutput{}, err
		}
	}

	created, err := h.svc.Activities.Create(ctx, models.Activity{
		Type:        strings.ToLower(input.Type),
		Description: input.Description,
		ContactID:   input.ContactID,
		DealID:      input.DealID,
	})
	if err != nil {
		return nil, ActivityOutput{}, fmt.Errorf("failed to log activity: %w", err)
	}

	if contact != nil {
		contact.LastContactDate = created.Timestamp
		if _, err := h.svc.Contacts.Update(ctx, *contact); err != nil {
			return nil, ActivityOutput{}, fmt.Errorf("activity logged but failed to update contact: %w", err)
		}
	}
	return nil, activityToOutput(*created), nil
}
