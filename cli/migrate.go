// ABOUTME: Copies every record from the configured backend into another one
// ABOUTME: Provides dry-run and SQLite backup capabilities for safe moves between backends

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/dealdeck/config"
	"github.com/harperreed/dealdeck/db"
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type migrateOptions struct {
	to          string
	toDSN       string
	remoteURL   string
	remoteToken string
	dryRun      bool
	backup      bool
	force       bool
}

func newMigrateCmd(a *app) *cobra.Command {
	var opts migrateOptions
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all records into another backend",
		Long: `Copy stages, contacts, deals, and activities from the configured backend
into the backend named by --to. The target assigns new ids and deal and
activity references are rewritten to match.

Target tables that already hold records are skipped unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.migrate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.to, "to", "", "Target backend: sqlite, postgres, charm, remote (required)")
	f.StringVar(&opts.toDSN, "to-dsn", "", "Target database path or connection string")
	f.StringVar(&opts.remoteURL, "to-url", "", "Target record API URL for the remote backend")
	f.StringVar(&opts.remoteToken, "to-token", "", "Target record API token for the remote backend")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Show what would happen without making changes")
	f.BoolVar(&opts.backup, "backup", true, "Back up an existing SQLite target before writing")
	f.BoolVar(&opts.force, "force", false, "Append into target tables that already hold records")
	return cmd
}

func (a *app) targetConfig(opts migrateOptions) (*config.Config, error) {
	if opts.to == "" {
		return nil, fmt.Errorf("--to is required")
	}
	if opts.to == config.BackendMemory {
		return nil, fmt.Errorf("the memory backend cannot be a migration target")
	}
	target := *a.cfg
	target.Store = config.StoreConfig{
		Backend:     opts.to,
		DSN:         opts.toDSN,
		RemoteURL:   opts.remoteURL,
		RemoteToken: opts.remoteToken,
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if target.Store.Backend == a.cfg.Store.Backend && target.Store.DSN == a.cfg.Store.DSN && target.Store.RemoteURL == a.cfg.Store.RemoteURL {
		return nil, fmt.Errorf("source and target are the same store")
	}
	return &target, nil
}

func (a *app) migrate(ctx context.Context, out io.Writer, opts migrateOptions) error {
	target, err := a.targetConfig(opts)
	if err != nil {
		return err
	}

	if opts.dryRun {
		fmt.Fprintf(out, "[DRY RUN] Would copy from %s into %s:\n", a.cfg.Store.Backend, target.Store.Backend)
		for _, table := range recordstore.Tables() {
			records, err := a.store.FetchRecords(ctx, table, recordstore.Query{Fields: []string{recordstore.FieldID}})
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", table, err)
			}
			fmt.Fprintf(out, "[DRY RUN]   %-12s %d records\n", table, len(records))
		}
		return nil
	}

	if opts.backup && target.Store.Backend == config.BackendSQLite {
		path := target.Store.DSN
		if path == "" {
			path = db.DefaultPath()
		}
		backupPath, err := backupFile(path, time.Now())
		if err != nil {
			return err
		}
		if backupPath != "" {
			fmt.Fprintf(out, "Backup created: %s\n", backupPath)
		}
	}

	dst, closeDst, err := openStore(ctx, target, a.log)
	if err != nil {
		return fmt.Errorf("failed to open target: %w", err)
	}
	defer func() { _ = closeDst() }()

	report, err := recordstore.Copy(ctx, a.store, dst, opts.force)
	if err != nil {
		return err
	}
	for _, table := range recordstore.Tables() {
		n, copied := report[table]
		if !copied {
			fmt.Fprintf(out, "  %-12s skipped (target not empty)\n", table)
			continue
		}
		fmt.Fprintf(out, "  %-12s %d\n", table, n)
		a.log.Info("migrated table", zap.String("table", table), zap.Int("records", n))
	}
	fmt.Fprintf(out, "✓ Migration into %s complete\n", target.Store.Backend)
	return nil
}

// backupFile copies path next to itself with a timestamp suffix. A missing
// file needs no backup and yields an empty path.
func backupFile(path string, now time.Time) (string, error) {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}
	backupPath := fmt.Sprintf("%s.backup.%s", path, now.Format("20060102-150405"))
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}
