// ABOUTME: Hosted record API login and logout
// ABOUTME: Prompts for the API token without echo and stores it in the config file
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/harperreed/dealdeck/config"
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/remote"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage credentials for the hosted record API",
	}
	cmd.AddCommand(newAuthLoginCmd(a), newAuthLogoutCmd(a))
	return cmd
}

func newAuthLoginCmd(a *app) *cobra.Command {
	var (
		apiURL   string
		noSwitch bool
	)
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Store an API token and switch to the remote backend",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			reader := bufio.NewReader(cmd.InOrStdin())

			if apiURL == "" {
				apiURL = a.cfg.Store.RemoteURL
			}
			if apiURL == "" {
				fmt.Fprint(out, "Record API URL: ")
				line, _ := reader.ReadString('\n')
				apiURL = strings.TrimSpace(line)
			}
			if apiURL == "" {
				return fmt.Errorf("a record API URL is required")
			}

			fmt.Fprint(out, "API token: ")
			var token string
			if term.IsTerminal(int(os.Stdin.Fd())) {
				b, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(out)
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}
				token = string(b)
			} else {
				line, _ := reader.ReadString('\n')
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("an API token is required")
			}

			client, err := remote.New(apiURL, remote.StaticToken(token), remote.WithLogger(a.log))
			if err != nil {
				return err
			}
			q := recordstore.Query{Fields: []string{recordstore.FieldID}}.Limit(1, 0)
			if _, err := client.FetchRecords(cmd.Context(), recordstore.TableStages, q); err != nil {
				return fmt.Errorf("token check failed: %w", err)
			}

			a.cfg.Store.RemoteURL = apiURL
			a.cfg.Store.RemoteToken = token
			if !noSwitch {
				a.cfg.Store.Backend = config.BackendRemote
			}
			if err := a.cfg.Save(a.flags.configPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Logged in to %s\n", apiURL)
			if !noSwitch {
				fmt.Fprintln(out, "✓ Store backend set to remote")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "url", "", "Record API base URL, e.g. https://crm.example.com/api/v1")
	cmd.Flags().BoolVar(&noSwitch, "no-switch", false, "Keep the current store backend")
	return cmd
}

func newAuthLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Forget the stored API token",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Store.RemoteToken == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			a.cfg.Store.RemoteToken = ""
			if a.cfg.Store.Backend == config.BackendRemote {
				a.cfg.Store.Backend = config.DefaultConfig().Store.Backend
			}
			if err := a.cfg.Save(a.flags.configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
			return nil
		},
	}
}
