// ABOUTME: Charm KV backend management commands
// ABOUTME: Shows link status, forces a sync, changes host and auto-sync, or wipes the store
package cli

import (
	"fmt"
	"strconv"

	"github.com/harperreed/dealdeck/charm"
	"github.com/spf13/cobra"
)

func newCharmCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charm",
		Short: "Manage the Charm KV backend",
	}
	cmd.AddCommand(
		newCharmStatusCmd(),
		newCharmSyncCmd(),
		newCharmHostCmd(),
		newCharmAutoSyncCmd(),
		newCharmResetCmd(),
	)
	return cmd
}

func openCharm() (*charm.Client, error) {
	cfg, err := charm.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load charm config: %w", err)
	}
	return charm.Open(cfg)
}

func charmCommand(use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:         use,
		Short:       short,
		Args:        args,
		Annotations: map[string]string{noStore: "true"},
		RunE:        run,
	}
}

func newCharmStatusCmd() *cobra.Command {
	return charmCommand("status", "Show charm host, sync settings, and account", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		cfg, err := charm.LoadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Host:       %s\n", cfg.Host)
		fmt.Fprintf(out, "Auto-sync:  %t\n", cfg.AutoSync)
		fmt.Fprintf(out, "Local only: %t\n", cfg.LocalOnly)
		if cfg.LocalOnly {
			fmt.Fprintf(out, "Data dir:   %s\n", charm.DataDir())
			return nil
		}

		client, err := charm.Open(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		id, err := client.ID()
		if err != nil {
			fmt.Fprintln(out, "Account:    not linked")
			return nil
		}
		fmt.Fprintf(out, "Account:    %s\n", id)
		return nil
	})
}

func newCharmSyncCmd() *cobra.Command {
	return charmCommand("sync", "Pull and push changes with the charm server", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		client, err := openCharm()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		if err := client.Sync(); err != nil {
			return fmt.Errorf("charm sync failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Synced")
		return nil
	})
}

func newCharmHostCmd() *cobra.Command {
	return charmCommand("host <host>", "Point the backend at another charm server", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) error {
		cfg, err := charm.LoadConfig()
		if err != nil {
			return err
		}
		if err := cfg.SetHost(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Charm host set to %s\n", args[0])
		return nil
	})
}

func newCharmAutoSyncCmd() *cobra.Command {
	return charmCommand("autosync <on|off>", "Sync after every write, or only on demand", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) error {
		enabled, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		cfg, err := charm.LoadConfig()
		if err != nil {
			return err
		}
		if err := cfg.SetAutoSync(enabled); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Auto-sync %s\n", args[0])
		return nil
	})
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}

func newCharmResetCmd() *cobra.Command {
	var yes bool
	cmd := charmCommand("reset", "Delete every record in the charm store", cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
		if !yes {
			return fmt.Errorf("reset deletes all CRM data in charm; re-run with --yes to confirm")
		}
		client, err := openCharm()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		if err := client.Reset(); err != nil {
			return fmt.Errorf("charm reset failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Charm store wiped")
		return nil
	})
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
