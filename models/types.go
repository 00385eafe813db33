// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Contact, Deal, Activity, and Stage structs plus their enumerations
package models

import (
	"strings"
	"time"
)

// Contact status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusLead     = "lead"
)

// StatusAll is the contact filter value that matches every status.
const StatusAll = "all"

// Deal stage values used by the dashboard and the seeded stage list.
const (
	StageDiscovery   = "discovery"
	StageQualified   = "qualified"
	StageProposal    = "proposal"
	StageNegotiation = "negotiation"
)

// Activity type values.
const (
	ActivityEmail   = "email"
	ActivityCall    = "call"
	ActivityMeeting = "meeting"
	ActivityOther   = "other"
)

// UnknownContactName is shown when a deal or activity points at a contact that no longer exists.
const UnknownContactName = "Unknown Contact"

type Contact struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Company         string    `json:"company,omitempty"`
	Status          string    `json:"status"`
	Tags            []string  `json:"tags"`
	Notes           string    `json:"notes,omitempty"`
	LastContactDate time.Time `json:"last_contact_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Deal struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Value             float64    `json:"value"`
	Stage             string     `json:"stage"`
	Probability       int        `json:"probability"`
	ContactID         int64      `json:"contact_id,omitempty"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type Activity struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	ContactID   int64     `json:"contact_id,omitempty"`
	DealID      int64     `json:"deal_id,omitempty"`
	ExternalRef string    `json:"external_ref,omitempty"`
}

type Stage struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Color string `json:"color"`
}

// Key is the lower-cased stage name that deals are compared against.
func (s Stage) Key() string {
	return strings.ToLower(s.Name)
}

// DaysInStage counts whole days since the deal last changed.
func (d Deal) DaysInStage(now time.Time) int {
	if d.UpdatedAt.IsZero() || now.Before(d.UpdatedAt) {
		return 0
	}
	return int(now.Sub(d.UpdatedAt).Hours() / 24)
}

// HasTag reports whether the contact carries the tag, ignoring case.
func (c Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known contact status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusLead:
		return true
	}
	return false
}

// IsValidActivityType reports whether t is a known activity type.
func IsValidActivityType(t string) bool {
	switch t {
	case ActivityEmail, ActivityCall, ActivityMeeting, ActivityOther:
		return true
	}
	return false
}

// DefaultStageNames is the fixed stage scan order used for per-stage totals.
func DefaultStageNames() []string {
	return []string{StageDiscovery, StageQualified, StageProposal, StageNegotiation}
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

type SyncState struct {
	Service       string     `json:"service"`
	LastSyncTime  *time.Time `json:"last_sync_time,omitempty"`
	LastSyncToken string     `json:"last_sync_token,omitempty"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
