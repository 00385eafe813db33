// ABOUTME: Email index over existing contacts used by both importers
// ABOUTME: Dedupes imported people and derives a company from a work address
package sync

import (
	"strings"

	"github.com/harperreed/dealdeck/models"
)

// freeMailDomains never stand in for a company name.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"icloud.com":     true,
	"me.com":         true,
	"proton.me":      true,
}

// ContactMatcher indexes contacts by email. Contacts queued for creation
// are indexed with ID 0 so one import run never queues the same person twice.
type ContactMatcher struct {
	byEmail map[string]*models.Contact
}

func NewContactMatcher(contacts []models.Contact) *ContactMatcher {
	m := &ContactMatcher{byEmail: make(map[string]*models.Contact, len(contacts))}
	for i := range contacts {
		m.AddContact(&contacts[i])
	}
	return m
}

// FindMatch returns the indexed contact for email, saved or pending.
func (m *ContactMatcher) FindMatch(email string) (*models.Contact, bool) {
	key := emailKey(email)
	if key == "" {
		return nil, false
	}
	c, ok := m.byEmail[key]
	return c, ok
}

// Saved returns the stored contact for email, ignoring pending ones.
func (m *ContactMatcher) Saved(email string) *models.Contact {
	if c, ok := m.FindMatch(email); ok && c.ID != 0 {
		return c
	}
	return nil
}

// AddContact indexes c, replacing any earlier entry for the same address.
func (m *ContactMatcher) AddContact(c *models.Contact) {
	if key := emailKey(c.Email); key != "" {
		m.byEmail[key] = c
	}
}

// emailKey is the case-insensitive dedupe key for an address, or "" when
// the value has no local part and domain.
func emailKey(email string) string {
	e := strings.ToLower(strings.TrimSpace(email))
	local, domain, ok := strings.Cut(e, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return ""
	}
	return e
}

// companyDomain returns the domain of a work address. Free-mail providers
// and malformed addresses yield "".
func companyDomain(email string) string {
	key := emailKey(email)
	if key == "" {
		return ""
	}
	_, domain, _ := strings.Cut(key, "@")
	if freeMailDomains[domain] {
		return ""
	}
	return domain
}
