// ABOUTME: Google sync CLI commands
// ABOUTME: Handles OAuth setup, contact and calendar imports, status, and daemon mode
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/dealdeck/sync"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// minDaemonInterval keeps the daemon inside Google API quotas.
const minDaemonInterval = 5 * time.Minute

var syncServices = []string{sync.ServiceContacts, sync.ServiceCalendar}

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import contacts and meetings from Google",
		Long: `Import Google Contacts as leads and Google Calendar meetings as activities.

Run 'dealdeck sync init' once to authorize, then 'dealdeck sync contacts' and
'dealdeck sync calendar', or leave 'dealdeck sync daemon' running.`,
	}
	cmd.AddCommand(
		newSyncInitCmd(a),
		newSyncContactsCmd(a),
		newSyncCalendarCmd(a),
		newSyncStatusCmd(a),
		newSyncDaemonCmd(a),
	)
	return cmd
}

func newSyncInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Authorize dealdeck to read your Google contacts and calendar",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOAuthFlow(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// runOAuthFlow completes the installed-app flow through a local callback server.
func runOAuthFlow(ctx context.Context, out io.Writer) error {
	config, err := sync.GetClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to get OAuth config: %w", err)
	}

	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "no authorization code received", http.StatusBadRequest)
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			http.Error(w, "authorization failed", http.StatusInternalServerError)
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: sync.CallbackAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)

	fmt.Fprintln(out, "Opening browser for Google OAuth...")
	fmt.Fprintf(out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		if err := sync.SaveToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		fmt.Fprintf(out, "\n✓ Authenticated successfully\n")
		fmt.Fprintf(out, "✓ Tokens saved to %s\n\n", sync.TokenPath())
		fmt.Fprintln(out, "Ready to sync! Run 'dealdeck sync contacts' to import contacts.")
		return nil
	case err := <-errChan:
		return fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}

func loadToken() (*oauth2.Token, error) {
	token, err := sync.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("no authentication token found. Run 'dealdeck sync init' first: %w", err)
	}
	return token, nil
}

func printReport(out io.Writer, what string, r sync.ImportReport) {
	fmt.Fprintf(out, "✓ %s: fetched %d, created %d, updated %d, skipped %d\n", what, r.Fetched, r.Created, r.Updated, r.Skipped)
	reasons := make([]string, 0, len(r.SkipCounts))
	for reason := range r.SkipCounts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(out, "    %-20s %d\n", reason, r.SkipCounts[reason])
	}
}

// syncService runs one import and returns its report.
func (a *app) syncService(ctx context.Context, service string, token *oauth2.Token, initial bool) (sync.ImportReport, error) {
	state := sync.NewStateStore(sync.DefaultStatePath())
	switch service {
	case sync.ServiceContacts:
		client, err := sync.NewPeopleClient(ctx, token)
		if err != nil {
			return sync.ImportReport{}, fmt.Errorf("failed to create People client: %w", err)
		}
		return sync.NewContactsImporter(a.svc, state, a.log).Import(ctx, client)
	case sync.ServiceCalendar:
		client, err := sync.NewCalendarClient(ctx, token)
		if err != nil {
			return sync.ImportReport{}, fmt.Errorf("failed to create Calendar client: %w", err)
		}
		return sync.NewCalendarImporter(a.svc, state, a.log).Import(ctx, client, initial)
	}
	return sync.ImportReport{}, fmt.Errorf("unknown sync service %q", service)
}

func newSyncContactsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "Import Google Contacts as leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := loadToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Syncing Google Contacts...")
			report, err := a.syncService(cmd.Context(), sync.ServiceContacts, token, false)
			if err != nil {
				return fmt.Errorf("contact sync failed: %w", err)
			}
			printReport(cmd.OutOrStdout(), "Contacts", report)
			return nil
		},
	}
}

func newSyncCalendarCmd(a *app) *cobra.Command {
	var initial bool
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Import Google Calendar meetings as activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := loadToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Syncing Google Calendar...")
			report, err := a.syncService(cmd.Context(), sync.ServiceCalendar, token, initial)
			if err != nil {
				return fmt.Errorf("calendar sync failed: %w", err)
			}
			printReport(cmd.OutOrStdout(), "Calendar", report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&initial, "initial", false, "Full import (last 6 months)")
	return cmd
}

func newSyncStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show when each Google service last synced",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSyncStatus(cmd.OutOrStdout(), sync.NewStateStore(sync.DefaultStatePath()), time.Now())
		},
	}
}

func printSyncStatus(out io.Writer, state *sync.StateStore, now time.Time) error {
	for _, service := range syncServices {
		st, err := state.Get(service)
		if err != nil {
			return err
		}
		if st == nil {
			fmt.Fprintf(out, "%-10s %-8s last sync never\n", service, "-")
			continue
		}
		last := "never"
		if st.LastSyncTime != nil {
			last = formatTimeSinceAt(*st.LastSyncTime, now)
		}
		fmt.Fprintf(out, "%-10s %-8s last sync %s\n", service, st.Status, last)
		if st.ErrorMessage != "" {
			fmt.Fprintf(out, "           error: %s\n", st.ErrorMessage)
		}
	}
	return nil
}

// parseServices returns the known services named in a comma-separated list.
func parseServices(input string) []string {
	input = strings.TrimSpace(input)
	if input == "all" {
		return append([]string{}, syncServices...)
	}
	result := []string{}
	for _, part := range strings.Split(input, ",") {
		name := strings.TrimSpace(part)
		for _, known := range syncServices {
			if name == known {
				result = append(result, name)
				break
			}
		}
	}
	return result
}

func formatTimeSince(t time.Time) string {
	return formatTimeSinceAt(t, time.Now())
}

func formatTimeSinceAt(t, now time.Time) string {
	d := now.Sub(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func newSyncDaemonCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		services string
	)
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Sync on a schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval < minDaemonInterval {
				return fmt.Errorf("interval must be at least %s", minDaemonInterval)
			}
			selected := parseServices(services)
			if len(selected) == 0 {
				return fmt.Errorf("no valid services in %q (valid: all, %s)", services, strings.Join(syncServices, ", "))
			}
			token, err := loadToken()
			if err != nil {
				return err
			}
			a.log.Info("sync daemon started", zap.Duration("interval", interval), zap.Strings("services", selected))
			return runDaemon(cmd.Context(), interval, func(ctx context.Context) {
				for _, service := range selected {
					report, err := a.syncService(ctx, service, token, false)
					if err != nil {
						a.log.Error("sync failed", zap.String("service", service), zap.Error(err))
						continue
					}
					a.log.Info("sync complete",
						zap.String("service", service),
						zap.Int("created", report.Created),
						zap.Int("updated", report.Updated),
						zap.Int("skipped", report.Skipped))
				}
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "Time between syncs (minimum 5m)")
	cmd.Flags().StringVar(&services, "services", "all", "Services to sync: all, or a comma-separated list")
	return cmd
}

// runDaemon calls run immediately and then every interval until ctx is done.
func runDaemon(ctx context.Context, interval time.Duration, run func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			run(ctx)
		}
	}
}
