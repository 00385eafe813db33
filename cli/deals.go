// ABOUTME: Deal and pipeline CLI commands
// ABOUTME: Lists deals, moves them between stages, and renders dashboard and graph output
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
	"github.com/spf13/cobra"
)

func newDealsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deals",
		Aliases: []string{"deal"},
		Short:   "Manage deals",
	}
	cmd.AddCommand(newDealsListCmd(a), newDealsMoveCmd(a))
	return cmd
}

func newDealsListCmd(a *app) *cobra.Command {
	var (
		stage     string
		contactID int64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				deals []models.Deal
				err   error
			)
			if contactID != 0 {
				deals, err = a.svc.Deals.GetByContactID(ctx, contactID)
			} else {
				deals, err = a.svc.Deals.GetAll(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list deals: %w", err)
			}
			contacts, err := a.svc.Contacts.GetAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to load contacts: %w", err)
			}
			names := services.ContactNames(contacts)

			out := cmd.OutOrStdout()
			stage = strings.ToLower(strings.TrimSpace(stage))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCONTACT\tSTAGE\tVALUE\tPROB")
			fmt.Fprintln(w, "--\t-----\t-------\t-----\t-----\t----")
			var (
				shown int
				total float64
			)
			for _, d := range deals {
				if stage != "" && strings.ToLower(d.Stage) != stage {
					continue
				}
				name := names[d.ContactID]
				if name == "" {
					name = models.UnknownContactName
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d%%\n", d.ID, d.Title, name, d.Stage, viz.FormatCurrency(d.Value), d.Probability)
				shown++
				total += d.Value
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d deals, %s total\n", shown, viz.FormatCurrency(total))
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Only deals in this stage")
	cmd.Flags().Int64Var(&contactID, "contact", 0, "Only deals for this contact ID")
	return cmd
}

func newDealsMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <deal-id> <stage>",
		Short: "Move a deal to another pipeline stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			data, err := a.svc.LoadPipeline(cmd.Context())
			if err != nil {
				return err
			}
			b := board.FromPipeline(a.svc.Deals, data)
			deal, ok := b.Deal(id)
			if !ok {
				return fmt.Errorf("%w: %d", services.ErrDealNotFound, id)
			}

			notice, err := b.Drop(cmd.Context(), id, args[1])
			if errors.Is(err, board.ErrUnknownStage) {
				return fmt.Errorf("unknown stage %q (valid: %s)", args[1], strings.Join(stageKeys(b.Stages()), ", "))
			}
			if err != nil {
				return err
			}
			if notice.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already in %s\n", deal.Title, strings.ToLower(deal.Stage))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s\n", deal.Title, notice.Message)
			return nil
		},
	}
}

func stageKeys(stages []models.Stage) []string {
	keys := make([]string, len(stages))
	for i, st := range stages {
		keys[i] = st.Key()
	}
	return keys
}

func newDashboardCmd(a *app) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print pipeline metrics and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if recent <= 0 {
				recent = a.cfg.Dashboard.RecentActivities
			}
			data, err := a.svc.LoadDashboard(cmd.Context(), recent)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(viz.ComputeDashboard(data, a.metrics())))
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 0, "Recent activities to show (default from config)")
	return cmd
}

func newPipelineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Pipeline visualizations",
	}

	var (
		format    string
		output    string
		contactID int64
	)
	graph := &cobra.Command{
		Use:   "graph",
		Short: "Render the pipeline (or one contact's network) with graphviz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := viz.ParseFormat(format)
			if err != nil {
				return err
			}
			gen := viz.NewGraphGenerator(a.svc)
			var src string
			if contactID != 0 {
				src, err = gen.GenerateContactGraph(cmd.Context(), contactID, f)
			} else {
				src, err = gen.GeneratePipelineGraph(cmd.Context(), f)
			}
			if err != nil {
				return fmt.Errorf("failed to generate graph: %w", err)
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), src)
				return nil
			}
			if err := os.WriteFile(output, []byte(src), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Graph written to %s\n", output)
			return nil
		},
	}
	graph.Flags().StringVar(&format, "format", "dot", "Output format: dot or svg")
	graph.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	graph.Flags().Int64Var(&contactID, "contact", 0, "Graph one contact's deals and activity instead")

	cmd.AddCommand(graph)
	return cmd
}
