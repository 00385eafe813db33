// ABOUTME: Unit tests for sync daemon mode and sync status output
// ABOUTME: Tests service selection, time formatting, scheduling, and status rendering
package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/dealdeck/sync"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "all services",
			input:    "all",
			expected: []string{"contacts", "calendar"},
		},
		{
			name:     "single service",
			input:    "contacts",
			expected: []string{"contacts"},
		},
		{
			name:     "multiple services",
			input:    "calendar,contacts",
			expected: []string{"calendar", "contacts"},
		},
		{
			name:     "spaces around commas",
			input:    "contacts, calendar",
			expected: []string{"contacts", "calendar"},
		},
		{
			name:     "invalid service ignored",
			input:    "contacts,gmail,calendar",
			expected: []string{"contacts", "calendar"},
		},
		{
			name:     "all invalid services",
			input:    "invalid,unknown",
			expected: []string{},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseServices(tt.input)

			if len(result) != len(tt.expected) {
				t.Errorf("expected %d services, got %d: %v", len(tt.expected), len(result), result)
				return
			}
			for i, service := range tt.expected {
				if result[i] != service {
					t.Errorf("expected service[%d] = %s, got %s", i, service, result[i])
				}
			}
		})
	}
}

func TestFormatTimeSince(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		time     time.Time
		expected string
	}{
		{"just now (30 seconds)", now.Add(-30 * time.Second), "just now"},
		{"1 minute ago", now.Add(-1 * time.Minute), "1 minute ago"},
		{"5 minutes ago", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"1 hour ago", now.Add(-1 * time.Hour), "1 hour ago"},
		{"3 hours ago", now.Add(-3 * time.Hour), "3 hours ago"},
		{"1 day ago", now.Add(-24 * time.Hour), "1 day ago"},
		{"5 days ago", now.Add(-5 * 24 * time.Hour), "5 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatTimeSinceAt(tt.time, now)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}

	if got := formatTimeSince(time.Now()); got != "just now" {
		t.Errorf("expected just now for the current time, got %q", got)
	}
}

func TestRunDaemonRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 10)

	done := make(chan error, 1)
	go func() {
		done <- runDaemon(ctx, 10*time.Millisecond, func(context.Context) {
			runs <- struct{}{}
		})
	}()

	// First run happens before the first tick, the second on a tick.
	for i := 0; i < 2; i++ {
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d did not happen", i+1)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("daemon shutdown failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not shut down within timeout")
	}
}

func TestDaemonRejectsShortInterval(t *testing.T) {
	_, err := runCLI(t, "sync", "daemon", "--interval", "4m")
	if err == nil || !strings.Contains(err.Error(), "at least 5m") {
		t.Fatalf("expected minimum interval error, got %v", err)
	}

	_, err = runCLI(t, "sync", "daemon", "--services", "gmail")
	if err == nil || !strings.Contains(err.Error(), "no valid services") {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestPrintSyncStatus(t *testing.T) {
	state := sync.NewStateStore(filepath.Join(t.TempDir(), "sync-state.json"))
	if err := state.Complete(sync.ServiceContacts, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := state.SetStatus(sync.ServiceCalendar, "error", "quota exceeded"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	var out bytes.Buffer
	if err := printSyncStatus(&out, state, time.Now()); err != nil {
		t.Fatalf("print status: %v", err)
	}
	got := out.String()

	for _, want := range []string{"contacts", "idle", "just now", "calendar", "error: quota exceeded"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q:\n%s", want, got)
		}
	}
}

func TestPrintSyncStatusNeverSynced(t *testing.T) {
	state := sync.NewStateStore(filepath.Join(t.TempDir(), "sync-state.json"))

	var out bytes.Buffer
	if err := printSyncStatus(&out, state, time.Now()); err != nil {
		t.Fatalf("print status: %v", err)
	}
	if n := strings.Count(out.String(), "last sync never"); n != 2 {
		t.Errorf("expected both services never synced, got %d:\n%s", n, out.String())
	}
}
