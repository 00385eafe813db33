// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for listing, adding, showing, and deleting contacts
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func formatDate(c models.Contact) string {
	if c.LastContactDate.IsZero() {
		return "-"
	}
	return c.LastContactDate.Format("2006-01-02")
}

func newContactsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "Manage contacts",
	}
	cmd.AddCommand(
		newContactsListCmd(a),
		newContactsAddCmd(a),
		newContactsShowCmd(a),
		newContactsDeleteCmd(a),
	)
	return cmd
}

func newContactsListCmd(a *app) *cobra.Command {
	var (
		status string
		query  string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status = strings.ToLower(status)
			if status != models.StatusAll && !models.IsValidStatus(status) {
				return fmt.Errorf("invalid status %q (valid: all, active, inactive, lead)", status)
			}
			all, err := a.svc.Contacts.GetAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list contacts: %w", err)
			}
			matched := services.FilterContacts(all, status, query)
			if limit > 0 && len(matched) > limit {
				matched = matched[:limit]
			}

			out := cmd.OutOrStdout()
			if len(matched) == 0 {
				fmt.Fprintln(out, "No contacts found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCOMPANY\tSTATUS\tLAST CONTACT")
			fmt.Fprintln(w, "--\t----\t-----\t-------\t------\t------------")
			for _, c := range matched {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Company, c.Status, formatDate(c))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d of %d contacts\n", len(matched), len(all))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", models.StatusAll, "Filter by status: all, active, inactive, lead")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search name, email, and company")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum results (0 for no limit)")
	return cmd
}

func newContactsAddCmd(a *app) *cobra.Command {
	var c models.Contact
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(c.Name) == "" {
				return fmt.Errorf("--name is required")
			}
			c.Status = strings.ToLower(c.Status)
			created, err := a.svc.Contacts.Create(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("failed to create contact: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Contact created: %s (ID: %d)\n", created.Name, created.ID)
			if created.Email != "" {
				fmt.Fprintf(out, "  Email: %s\n", created.Email)
			}
			if created.Company != "" {
				fmt.Fprintf(out, "  Company: %s\n", created.Company)
			}
			fmt.Fprintf(out, "  Status: %s\n", created.Status)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.Name, "name", "", "Contact name (required)")
	f.StringVar(&c.Email, "email", "", "Email address")
	f.StringVar(&c.Phone, "phone", "", "Phone number")
	f.StringVar(&c.Company, "company", "", "Company name")
	f.StringVar(&c.Status, "status", models.StatusLead, "active, inactive, or lead")
	f.StringSliceVar(&c.Tags, "tags", nil, "Comma-separated tags")
	f.StringVar(&c.Notes, "notes", "", "Notes about the contact")
	return cmd
}

func newContactsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a contact with its deals and activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			detail, err := a.svc.LoadContactDetail(cmd.Context(), id)
			if err != nil {
				return err
			}
			printContactDetail(cmd.OutOrStdout(), detail)
			return nil
		},
	}
}

func printContactDetail(out io.Writer, d *services.ContactDetail) {
	c := d.Contact
	fmt.Fprintf(out, "%s (ID: %d)\n", c.Name, c.ID)
	fmt.Fprintf(out, "  Status:       %s\n", c.Status)
	if c.Email != "" {
		fmt.Fprintf(out, "  Email:        %s\n", c.Email)
	}
	if c.Phone != "" {
		fmt.Fprintf(out, "  Phone:        %s\n", c.Phone)
	}
	if c.Company != "" {
		fmt.Fprintf(out, "  Company:      %s\n", c.Company)
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:         %s\n", strings.Join(c.Tags, ", "))
	}
	fmt.Fprintf(out, "  Last contact: %s\n", formatDate(c))
	if c.Notes != "" {
		fmt.Fprintf(out, "  Notes:        %s\n", c.Notes)
	}

	fmt.Fprintf(out, "\nDeals (%d)\n", len(d.Deals))
	for _, deal := range d.Deals {
		fmt.Fprintf(out, "  #%d %s  %s  %s\n", deal.ID, deal.Title, viz.FormatCurrency(deal.Value), deal.Stage)
	}

	fmt.Fprintf(out, "\nActivity (%d)\n", len(d.Activities))
	for _, act := range d.Activities {
		fmt.Fprintf(out, "  %s  %-8s %s\n", act.Timestamp.Format("2006-01-02"), act.Type, act.Description)
	}
}

func newContactsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.svc.Contacts.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := a.svc.Contacts.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete contact: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted contact: %s\n", c.Name)
			return nil
		},
	}
}
