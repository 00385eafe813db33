// ABOUTME: Long-running front ends: web server, terminal UI, and MCP stdio server
// ABOUTME: Each one shares the services built by the root command
package cli

import (
	"fmt"

	"github.com/harperreed/dealdeck/handlers"
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/tui"
	"github.com/harperreed/dealdeck/web"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		records bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Long: `Serve the dashboard, contacts, and pipeline pages plus the JSON API.

With --records the underlying store is also published as the hosted record
API under /api/v1/records, which other dealdeck instances can use through
the remote backend. Callers must send server.records_token as a bearer token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}
			opts := web.Options{
				Logger:           a.log,
				Metrics:          a.metrics(),
				RecentActivities: a.cfg.Dashboard.RecentActivities,
				AllowedOrigins:   a.cfg.Server.AllowedOrigins,
			}
			if records {
				opts.Store = a.store
				opts.RecordsToken = a.cfg.Server.RecordsToken
			}
			srv, err := web.NewServer(a.svc, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "DealDeck running at http://%s\n", addr)
			return srv.Start(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&records, "records", false, "Also expose the hosted record API")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal pipeline board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tui.Run(cmd.Context(), a.svc); err != nil {
				return fmt.Errorf("failed to run TUI: %w", err)
			}
			return nil
		},
	}
}

func newMCPCmd(a *app, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the CRM as MCP tools, resources, and prompts over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := handlers.NewServer(a.svc, a.store, handlers.ServerOptions{
				Version: version,
				Metrics: a.metrics(),
			})
			a.log.Info("starting MCP server on stdio")
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo contacts, deals, activities, and stages",
		Long:  "Load the demo data into every table that is still empty. Tables that already hold records are left alone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := recordstore.Seed(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			total := 0
			for _, table := range recordstore.Tables() {
				n := report[table]
				total += n
				fmt.Fprintf(out, "  %-12s %d\n", table, n)
			}
			if total == 0 {
				fmt.Fprintln(out, "Nothing to seed: every table already has records.")
				return nil
			}
			fmt.Fprintf(out, "✓ Seeded %d records\n", total)
			return nil
		},
	}
}
