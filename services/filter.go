// ABOUTME: Pure contact filtering by status and free-text query
// ABOUTME: Shared by the web contacts page, the TUI list, and the MCP tools
package services

import (
	"strings"

	"github.com/harperreed/dealdeck/models"
)

// FilterContacts keeps contacts whose status equals status (any status when
// status is "all" or empty) and whose name, email, or company contains query
// case-insensitively. The input slice is never modified.
func FilterContacts(contacts []models.Contact, status, query string) []models.Contact {
	status = strings.ToLower(strings.TrimSpace(status))
	needle := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if status != "" && status != models.StatusAll && c.Status != status {
			continue
		}
		if needle != "" && !matchesQuery(c, needle) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesQuery(c models.Contact, needle string) bool {
	for _, field := range []string{c.Name, c.Email, c.Company} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// ContactNames indexes contact names by id for deal and activity rendering.
func ContactNames(contacts []models.Contact) map[int64]string {
	names := make(map[int64]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.Name
	}
	return names
}

// ContactName resolves id through names, falling back to the unknown placeholder.
func ContactName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return models.UnknownContactName
}
