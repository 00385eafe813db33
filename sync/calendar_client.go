// ABOUTME: Calendar API client setup for Google Calendar integration
// ABOUTME: Creates authenticated Calendar service from OAuth token
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const maxResults = 250 // Google Calendar API max per page

// EventQuery selects one page of primary calendar events. SyncToken and
// TimeMin are mutually exclusive.
type EventQuery struct {
	SyncToken string
	TimeMin   string
	PageToken string
}

// EventLister returns one page of events from the primary calendar.
type EventLister interface {
	ListEvents(ctx context.Context, q EventQuery) (*calendar.Events, error)
}

// CalendarClient adapts the Calendar API service to EventLister.
type CalendarClient struct {
	svc *calendar.Service
}

// NewCalendarClient creates a Google Calendar API client from an OAuth token.
func NewCalendarClient(ctx context.Context, token *oauth2.Token) (*CalendarClient, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	client := config.Client(ctx, token)

	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{svc: service}, nil
}

func (c *CalendarClient) ListEvents(ctx context.Context, q EventQuery) (*calendar.Events, error) {
	call := c.svc.Events.List("primary").
		MaxResults(maxResults).
		SingleEvents(true).
		Context(ctx)

	if q.SyncToken != "" {
		call = call.SyncToken(q.SyncToken)
	} else {
		// orderBy is not allowed together with a sync token
		call = call.OrderBy("startTime")
		if q.TimeMin != "" {
			call = call.TimeMin(q.TimeMin)
		}
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}
	return call.Do()
}
