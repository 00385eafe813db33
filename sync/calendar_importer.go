// ABOUTME: Calendar event importer from Google Calendar API
// ABOUTME: Turns attended meetings into meeting activities using sync tokens for incremental runs
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
)

const (
	ServiceCalendar = "calendar"
	// ExternalRefPrefix namespaces calendar event ids in activity external refs.
	ExternalRefPrefix = "gcal:"
	initialLookback   = 6 // months
)

// shouldSkipEvent determines if an event should be skipped during import
// Returns (true, reason) if the event should be skipped, (false, "") otherwise
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil {
		return true, "nil event"
	}
	if event.Start == nil {
		return true, "missing start time"
	}

	// All-day events set Start.Date instead of DateTime
	if event.Start.Date != "" {
		return true, "all-day event"
	}
	if event.Status == "cancelled" {
		return true, "cancelled"
	}

	// The Self flag identifies the current user's attendee record
	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return true, "declined"
		}
	}

	attendeeCount := len(event.Attendees)
	if attendeeCount <= 1 {
		return true, fmt.Sprintf("solo event (%d attendee%s)", attendeeCount, pluralize(attendeeCount))
	}

	return false, ""
}

// pluralize returns "s" if count != 1, otherwise ""
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

type CalendarImporter struct {
	svc   *services.Services
	state *StateStore
	log   *zap.Logger
}

func NewCalendarImporter(svc *services.Services, state *StateStore, log *zap.Logger) *CalendarImporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CalendarImporter{svc: svc, state: state, log: log}
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusGone
}

// Import fetches primary calendar events and logs a meeting activity for each
// one attended with a known contact. initial forces a full six month window
// instead of the stored sync token.
func (ci *CalendarImporter) Import(ctx context.Context, src EventLister, initial bool) (ImportReport, error) {
	var report ImportReport
	if err := ci.state.SetStatus(ServiceCalendar, models.SyncStatusSyncing, ""); err != nil {
		return report, fmt.Errorf("failed to update sync status: %w", err)
	}
	fail := func(err error) (ImportReport, error) {
		_ = ci.state.SetStatus(ServiceCalendar, models.SyncStatusError, err.Error())
		return report, err
	}

	state, err := ci.state.Get(ServiceCalendar)
	if err != nil {
		return fail(fmt.Errorf("failed to get sync state: %w", err))
	}
	contacts, err := ci.svc.Contacts.GetAll(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load contacts: %w", err))
	}
	matcher := NewContactMatcher(contacts)

	now := ci.svc.Now()
	q := EventQuery{TimeMin: now.AddDate(0, -initialLookback, 0).Format(time.RFC3339)}
	if !initial && state != nil && state.LastSyncToken != "" {
		q = EventQuery{SyncToken: state.LastSyncToken}
		ci.log.Info("incremental calendar sync")
	} else {
		ci.log.Info("full calendar sync", zap.String("since", q.TimeMin))
	}

	nextSyncToken := ""
	for {
		events, err := src.ListEvents(ctx, q)
		if err != nil && isGone(err) && q.SyncToken != "" {
			// Expired sync token: fall back to a time window and restart paging
			fallback := now.AddDate(0, -initialLookback, 0)
			if state != nil && state.LastSyncTime != nil {
				fallback = *state.LastSyncTime
			}
			ci.log.Warn("sync token invalid, falling back to time-based sync", zap.Time("since", fallback))
			q = EventQuery{TimeMin: fallback.Format(time.RFC3339)}
			events, err = src.ListEvents(ctx, q)
		}
		if err != nil {
			return fail(fmt.Errorf("failed to fetch calendar events: %w", err))
		}

		report.Fetched += len(events.Items)
		if err := ci.importPage(ctx, events.Items, matcher, &report); err != nil {
			return fail(err)
		}

		if events.NextPageToken == "" {
			nextSyncToken = events.NextSyncToken
			break
		}
		q.PageToken = events.NextPageToken
	}

	if err := ci.state.Complete(ServiceCalendar, nextSyncToken); err != nil {
		return report, fmt.Errorf("failed to update sync token: %w", err)
	}
	return report, nil
}

func (ci *CalendarImporter) importPage(ctx context.Context, items []*calendar.Event, matcher *ContactMatcher, report *ImportReport) error {
	var pending []models.Activity
	lastSeen := map[int64]time.Time{}

	for _, event := range items {
		if skip, reason := shouldSkipEvent(event); skip {
			report.skip(reason)
			continue
		}

		ref := ExternalRefPrefix + event.Id
		existing, err := ci.svc.Activities.FindByExternalRef(ctx, ref)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("failed to check event %s: %w", event.Id, err)
		}
		if existing != nil {
			report.skip("already imported")
			continue
		}

		contact := attendeeContact(event, matcher)
		if contact == nil {
			report.skip("no known attendee")
			continue
		}

		start, err := time.Parse(time.RFC3339, event.Start.DateTime)
		if err != nil {
			report.skip("bad start time")
			continue
		}

		pending = append(pending, models.Activity{
			Type:        models.ActivityMeeting,
			Description: meetingDescription(event),
			Timestamp:   start,
			ContactID:   contact.ID,
			ExternalRef: ref,
		})
		if start.After(lastSeen[contact.ID]) {
			lastSeen[contact.ID] = start
		}
	}

	if len(pending) == 0 {
		return nil
	}
	created, err := ci.svc.Activities.CreateMany(ctx, pending)
	if err != nil {
		return fmt.Errorf("failed to create activities: %w", err)
	}
	report.Created += len(created)
	report.Skipped += len(pending) - len(created)

	for id, seen := range lastSeen {
		if err := ci.bumpLastContact(ctx, id, seen); err != nil {
			ci.log.Warn("failed to update last contact date", zap.Int64("contact_id", id), zap.Error(err))
			continue
		}
		report.Updated++
	}
	return nil
}

func (ci *CalendarImporter) bumpLastContact(ctx context.Context, id int64, seen time.Time) error {
	c, err := ci.svc.Contacts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !seen.After(c.LastContactDate) {
		return nil
	}
	c.LastContactDate = seen
	_, err = ci.svc.Contacts.Update(ctx, *c)
	return err
}

// attendeeContact returns the first non-self attendee that is a known contact.
func attendeeContact(event *calendar.Event, matcher *ContactMatcher) *models.Contact {
	for _, attendee := range event.Attendees {
		if attendee.Self || attendee.Resource {
			continue
		}
		if c := matcher.Saved(attendee.Email); c != nil {
			return c
		}
	}
	return nil
}

func meetingDescription(event *calendar.Event) string {
	summary := strings.TrimSpace(event.Summary)
	if summary == "" {
		summary = "Meeting"
	}
	return summary
}
