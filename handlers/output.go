// ABOUTME: Tool output shapes shared by the MCP handlers
// ABOUTME: Converts models into JSON-friendly structs with string timestamps
package handlers

import (
	"time"

	"github.com/harperreed/dealdeck/models"
)

type ContactOutput struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Company         string   `json:"company,omitempty"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags"`
	Notes           string   `json:"notes,omitempty"`
	LastContactDate string   `json:"last_contact_date,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

type DealOutput struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Value             float64 `json:"value"`
	Stage             string  `json:"stage"`
	Probability       int     `json:"probability"`
	ContactID         int64   `json:"contact_id,omitempty"`
	ContactName       string  `json:"contact_name,omitempty"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty"`
	Notes             string  `json:"notes,omitempty"`
	UpdatedAt         string  `json:"updated_at,omitempty"`
}

type ActivityOutput struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	ContactID   int64  `json:"contact_id,omitempty"`
	DealID      int64  `json:"deal_id,omitempty"`
}

type StageOutput struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Color string `json:"color,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func contactToOutput(c models.Contact) ContactOutput {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return ContactOutput{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Company:         c.Company,
		Status:          c.Status,
		Tags:            tags,
		Notes:           c.Notes,
		LastContactDate: formatTime(c.LastContactDate),
		CreatedAt:       formatTime(c.CreatedAt),
	}
}

func contactsToOutput(contacts []models.Contact) []ContactOutput {
	out := make([]ContactOutput, len(contacts))
	for i, c := range contacts {
		out[i] = contactToOutput(c)
	}
	return out
}

func dealToOutput(d models.Deal, contactName string) DealOutput {
	out := DealOutput{
		ID:          d.ID,
		Title:       d.Title,
		Value:       d.Value,
		Stage:       d.Stage,
		Probability: d.Probability,
		ContactID:   d.ContactID,
		ContactName: contactName,
		Notes:       d.Notes,
		UpdatedAt:   formatTime(d.UpdatedAt),
	}
	if d.ExpectedCloseDate != nil {
		out.ExpectedCloseDate = d.ExpectedCloseDate.Format("2006-01-02")
	}
	return out
}

func dealsToOutput(deals []models.Deal, names map[int64]string) []DealOutput {
	out := make([]DealOutput, len(deals))
	for i, d := range deals {
		name := ""
		if names != nil && d.ContactID != 0 {
			name = names[d.ContactID]
			if name == "" {
				name = models.UnknownContactName
			}
		}
		out[i] = dealToOutput(d, name)
	}
	return out
}

func activityToOutput(a models.Activity) ActivityOutput {
	return ActivityOutput{
		ID:          a.ID,
		Type:        a.Type,
		Description: a.Description,
		Timestamp:   formatTime(a.Timestamp),
		ContactID:   a.ContactID,
		DealID:      a.DealID,
	}
}

func activitiesToOutput(activities []models.Activity) []ActivityOutput {
	out := make([]ActivityOutput, len(activities))
	for i, a := range activities {
		out[i] = activityToOutput(a)
	}
	return out
}

func stagesToOutput(stages []models.Stage) []StageOutput {
	out := make([]StageOutput, len(stages))
	for i, st := range stages {
		out[i] = StageOutput{ID: st.ID, Name: st.Name, Order: st.Order, Color: st.Color}
	}
	return out
}
