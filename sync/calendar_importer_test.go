// ABOUTME: Tests for calendar event importer
// ABOUTME: Verifies event filtering, pagination, dedupe, and sync token handling
package sync

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/dealdeck/models"
)

type fakeCalendar struct {
	pages   []*calendar.Events
	queries []EventQuery
	// goneOnToken makes any sync-token query fail with 410 Gone
	goneOnToken bool
}

func (f *fakeCalendar) ListEvents(_ context.Context, q EventQuery) (*calendar.Events, error) {
	f.queries = append(f.queries, q)
	if f.goneOnToken && q.SyncToken != "" {
		return nil, &googleapi.Error{Code: http.StatusGone, Message: "sync token expired"}
	}
	idx := 0
	if q.PageToken != "" {
		idx = int(q.PageToken[0] - '0')
	}
	return f.pages[idx], nil
}

func meeting(id, summary, start string, emails ...string) *calendar.Event {
	e := &calendar.Event{
		Id:      id,
		Summary: summary,
		Status:  "confirmed",
		Start:   &calendar.EventDateTime{DateTime: start},
		Attendees: []*calendar.EventAttendee{
			{Email: "me@dealdeck.test", Self: true, ResponseStatus: "accepted"},
		},
	}
	for _, email := range emails {
		e.Attendees = append(e.Attendees, &calendar.EventAttendee{Email: email, ResponseStatus: "accepted"})
	}
	return e
}

func TestShouldSkipEvent(t *testing.T) {
	declined := meeting("d", "Sync", "2024-01-20T10:00:00Z", "a@example.com")
	declined.Attendees[0].ResponseStatus = "declined"

	cancelled := meeting("c", "Sync", "2024-01-20T10:00:00Z", "a@example.com")
	cancelled.Status = "cancelled"

	tests := []struct {
		name   string
		event  *calendar.Event
		skip   bool
		reason string
	}{
		{"nil", nil, true, "nil event"},
		{"no start", &calendar.Event{}, true, "missing start time"},
		{"all day", &calendar.Event{Start: &calendar.EventDateTime{Date: "2024-01-20"}}, true, "all-day event"},
		{"cancelled", cancelled, true, "cancelled"},
		{"declined", declined, true, "declined"},
		{"solo", meeting("s", "Focus", "2024-01-20T10:00:00Z"), true, "solo event (1 attendee)"},
		{"meeting", meeting("m", "Sync", "2024-01-20T10:00:00Z", "a@example.com"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := shouldSkipEvent(tt.event)
			if skip != tt.skip || reason != tt.reason {
				t.Errorf("shouldSkipEvent() = (%v, %q), want (%v, %q)", skip, reason, tt.skip, tt.reason)
			}
		})
	}
}

func TestCalendarImportCreatesMeetings(t *testing.T) {
	svc, state := setupTestServices(t)
	ctx := context.Background()

	src := &fakeCalendar{pages: []*calendar.Events{
		{
			Items: []*calendar.Event{
				meeting("evt1", "Renewal review", "2024-01-25T15:00:00Z", "sarah.johnson@techcorp.com"),
				meeting("evt2", "Coffee", "2024-01-26T09:00:00Z", "stranger@example.com"),
			},
			NextPageToken: "1",
		},
		{
			Items: []*calendar.Event{
				meeting("evt3", "", "2024-01-27T09:00:00Z", "dpark@financeplus.com"),
				{Id: "evt4", Start: &calendar.EventDateTime{Date: "2024-01-28"}},
			},
			NextSyncToken: "token-1",
		},
	}}

	importer := NewCalendarImporter(svc, state, nil)
	report, err := importer.Import(ctx, src, false)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if report.Fetched != 4 || report.Created != 2 {
		t.Errorf("expected 4 fetched and 2 created, got %+v", report)
	}
	if report.SkipCounts["no known attendee"] != 1 || report.SkipCounts["all-day event"] != 1 {
		t.Errorf("unexpected skips %v", report.SkipCounts)
	}
	if src.queries[0].TimeMin == "" || src.queries[0].SyncToken != "" {
		t.Errorf("first sync should be time based, got %+v", src.queries[0])
	}

	a, err := svc.Activities.FindByExternalRef(ctx, "gcal:evt1")
	if err != nil {
		t.Fatalf("FindByExternalRef failed: %v", err)
	}
	if a.Type != models.ActivityMeeting || a.ContactID != 1 || a.Description != "Renewal review" {
		t.Errorf("unexpected activity %+v", a)
	}

	untitled, err := svc.Activities.FindByExternalRef(ctx, "gcal:evt3")
	if err != nil {
		t.Fatalf("FindByExternalRef failed: %v", err)
	}
	if untitled.Description != "Meeting" {
		t.Errorf("expected fallback description, got %q", untitled.Description)
	}

	sarah, err := svc.Contacts.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	want := time.Date(2024, 1, 25, 15, 0, 0, 0, time.UTC)
	if !sarah.LastContactDate.Equal(want) {
		t.Errorf("expected last contact %v, got %v", want, sarah.LastContactDate)
	}

	st, err := state.Get(ServiceCalendar)
	if err != nil {
		t.Fatalf("state.Get failed: %v", err)
	}
	if st.LastSyncToken != "token-1" || st.Status != models.SyncStatusIdle {
		t.Errorf("expected stored token, got %+v", st)
	}
}

func TestCalendarImportIsIdempotent(t *testing.T) {
	svc, state := setupTestServices(t)
	ctx := context.Background()

	page := &calendar.Events{
		Items:         []*calendar.Event{meeting("evt1", "Renewal review", "2024-01-25T15:00:00Z", "sarah.johnson@techcorp.com")},
		NextSyncToken: "token-1",
	}
	importer := NewCalendarImporter(svc, state, nil)

	if _, err := importer.Import(ctx, &fakeCalendar{pages: []*calendar.Events{page}}, false); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	src := &fakeCalendar{pages: []*calendar.Events{page}}
	report, err := importer.Import(ctx, src, false)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	if report.Created != 0 || report.SkipCounts["already imported"] != 1 {
		t.Errorf("second run should skip the known event, got %+v", report)
	}
	if src.queries[0].SyncToken != "token-1" {
		t.Errorf("second run should be incremental, got %+v", src.queries[0])
	}

	activities, err := svc.Activities.GetByContactID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByContactID failed: %v", err)
	}
	if len(activities) != 3 {
		t.Errorf("expected 3 activities for Sarah, got %d", len(activities))
	}
}

func TestCalendarImportFallsBackOnExpiredToken(t *testing.T) {
	svc, state := setupTestServices(t)
	ctx := context.Background()
	if err := state.Complete(ServiceCalendar, "stale"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	src := &fakeCalendar{
		goneOnToken: true,
		pages:       []*calendar.Events{{NextSyncToken: "fresh"}},
	}
	if _, err := NewCalendarImporter(svc, state, nil).Import(ctx, src, false); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(src.queries) != 2 || src.queries[1].TimeMin == "" {
		t.Errorf("expected a time based retry, got %+v", src.queries)
	}
	st, _ := state.Get(ServiceCalendar)
	if st.LastSyncToken != "fresh" {
		t.Errorf("expected fresh token, got %q", st.LastSyncToken)
	}
}

func TestCalendarImportInitialIgnoresToken(t *testing.T) {
	svc, state := setupTestServices(t)
	if err := state.Complete(ServiceCalendar, "token-1"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	src := &fakeCalendar{pages: []*calendar.Events{{}}}
	if _, err := NewCalendarImporter(svc, state, nil).Import(context.Background(), src, true); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	want := testNow.AddDate(0, -6, 0).Format(time.RFC3339)
	if src.queries[0].SyncToken != "" || src.queries[0].TimeMin != want {
		t.Errorf("initial sync should use a six month window, got %+v", src.queries[0])
	}
}

func TestStateStoreLifecycle(t *testing.T) {
	_, state := setupTestServices(t)

	st, err := state.Get(ServiceCalendar)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st != nil {
		t.Errorf("expected nil state for new service, got %+v", st)
	}

	if err := state.SetStatus(ServiceCalendar, models.SyncStatusError, "rate limit"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	st, _ = state.Get(ServiceCalendar)
	if st.Status != models.SyncStatusError || st.ErrorMessage != "rate limit" {
		t.Errorf("unexpected state %+v", st)
	}

	if err := state.Complete(ServiceCalendar, "abc"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	st, _ = state.Get(ServiceCalendar)
	if st.Status != models.SyncStatusIdle || st.ErrorMessage != "" || st.LastSyncToken != "abc" {
		t.Errorf("unexpected state %+v", st)
	}

	if err := state.Reset(ServiceCalendar); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if st, _ := state.Get(ServiceCalendar); st != nil {
		t.Errorf("expected state to be cleared, got %+v", st)
	}
}

func TestIsGone(t *testing.T) {
	if !isGone(&googleapi.Error{Code: http.StatusGone}) {
		t.Error("410 should be gone")
	}
	if isGone(errors.New("boom")) || isGone(&googleapi.Error{Code: 500}) {
		t.Error("other errors are not gone")
	}
}
