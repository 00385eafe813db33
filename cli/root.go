// ABOUTME: Root cobra command and shared runtime for every subcommand
// ABOUTME: Loads config, builds the zap logger, and opens the configured record store
package cli

import (
	"fmt"

	"github.com/harperreed/dealdeck/config"
	"github.com/harperreed/dealdeck/logging"
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// noStore marks commands that run without opening the record store.
const noStore = "dealdeck/no-store"

type globalFlags struct {
	configPath string
	backend    string
	dsn        string
	seed       bool
	logLevel   string
}

// app is the runtime shared by subcommands once PersistentPreRunE has run.
type app struct {
	flags globalFlags
	cfg   *config.Config
	log   *zap.Logger
	store recordstore.Store
	svc   *services.Services
	close func() error
}

func (a *app) metrics() viz.MetricsConfig {
	m := viz.DefaultMetricsConfig()
	if len(a.cfg.Dashboard.Stages) > 0 {
		m.StageNames = a.cfg.Dashboard.Stages
	}
	if len(a.cfg.Dashboard.ClosedStages) > 0 {
		m.ClosedStages = a.cfg.Dashboard.ClosedStages
	}
	m.ConversionRate = a.cfg.Dashboard.ConversionRate
	return m
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("backend") {
		cfg.Store.Backend = a.flags.backend
	}
	if cmd.Flags().Changed("dsn") {
		cfg.Store.DSN = a.flags.dsn
	}
	if cmd.Flags().Changed("seed") {
		cfg.Store.Seed = a.flags.seed
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.log = log

	if cmd.Annotations[noStore] != "" {
		return nil
	}

	policy, err := services.ParseReadPolicy(cfg.Data.ReadPolicy)
	if err != nil {
		return err
	}
	store, closer, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	a.store = store
	a.close = closer
	a.svc = services.New(store, services.Options{Logger: log, ReadPolicy: policy})
	return nil
}

func (a *app) teardown() {
	if a.close != nil {
		if err := a.close(); err != nil {
			a.log.Warn("failed to close store", zap.Error(err))
		}
		a.close = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// NewRootCmd builds the dealdeck command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "dealdeck",
		Short: "DealDeck - a small CRM with a web UI, TUI, and MCP server",
		Long: `DealDeck tracks contacts, deals, activities, and pipeline stages.

Run 'dealdeck serve' for the web UI, 'dealdeck tui' for the terminal board,
or 'dealdeck mcp' to expose the CRM to an MCP client over stdio.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", fmt.Sprintf("Config file (default %s)", config.Path()))
	pf.StringVar(&a.flags.backend, "backend", "", "Record store backend: memory, sqlite, postgres, charm, remote")
	pf.StringVar(&a.flags.dsn, "dsn", "", "Database path or connection string for sqlite/postgres")
	pf.BoolVar(&a.flags.seed, "seed", false, "Load demo data into empty tables on startup")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newTUICmd(a),
		newMCPCmd(a, version),
		newContactsCmd(a),
		newDealsCmd(a),
		newDashboardCmd(a),
		newPipelineCmd(a),
		newSeedCmd(a),
		newMigrateCmd(a),
		newSyncCmd(a),
		newAuthCmd(a),
		newCharmCmd(a),
	)
	withTeardown(a, root)
	return root
}

// withTeardown wraps every RunE under cmd so the store is closed even when
// the command fails. Cobra skips post-run hooks after a RunE error.
func withTeardown(a *app, cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			defer a.teardown()
			return run(cmd, args)
		}
	}
	for _, sub := range cmd.Commands() {
		withTeardown(a, sub)
	}
}
