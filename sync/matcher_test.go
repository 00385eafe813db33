package sync

import (
	"testing"

	"github.com/harperreed/dealdeck/models"
)

func TestMatchContactByEmail(t *testing.T) {
	existing := []models.Contact{
		{ID: 1, Name: "Alice", Email: "alice@example.com"},
		{ID: 2, Name: "Bob", Email: "bob@example.com"},
	}

	matcher := NewContactMatcher(existing)

	// Case and surrounding space are ignored
	match, found := matcher.FindMatch(" Alice@Example.com ")
	if !found {
		t.Fatal("expected to find match for alice@example.com")
	}
	if match.ID != 1 {
		t.Errorf("expected contact 1, got %d", match.ID)
	}

	if _, found = matcher.FindMatch("charlie@example.com"); found {
		t.Error("expected no match for charlie@example.com")
	}
	if _, found = matcher.FindMatch(""); found {
		t.Error("expected no match for an empty address")
	}
}

func TestSavedIgnoresPendingContacts(t *testing.T) {
	matcher := NewContactMatcher([]models.Contact{{ID: 3, Email: "emily@retail.example"}})
	matcher.AddContact(&models.Contact{Name: "Queued", Email: "queued@example.com"})

	if _, found := matcher.FindMatch("queued@example.com"); !found {
		t.Error("expected pending contact to be indexed")
	}
	if c := matcher.Saved("queued@example.com"); c != nil {
		t.Errorf("expected pending contact to be ignored, got %+v", c)
	}
	if c := matcher.Saved("EMILY@retail.example"); c == nil || c.ID != 3 {
		t.Errorf("expected saved contact 3, got %+v", c)
	}
}

func TestEmailKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Alice@Example.com", "alice@example.com"},
		{" alice.smith@example.com ", "alice.smith@example.com"},
		{"invalid", ""},
		{"@example.com", ""},
		{"alice@", ""},
		{"a@b@c", ""},
	}

	for _, tt := range tests {
		if got := emailKey(tt.input); got != tt.expected {
			t.Errorf("emailKey(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCompanyDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"alice@example.com", "example.com"},
		{"Bob@Acme.co.uk", "acme.co.uk"},
		{"someone@gmail.com", ""},
		{"invalid", ""},
	}

	for _, tt := range tests {
		if got := companyDomain(tt.email); got != tt.expected {
			t.Errorf("companyDomain(%q) = %q, want %q", tt.email, got, tt.expected)
		}
	}
}
