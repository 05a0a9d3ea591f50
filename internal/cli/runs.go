package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mtexp/internal/runstore"
)

func newRunsCmd(g *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usageError{fmt.Errorf("runs requires a subcommand: list|show")}
		},
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List runs in the state directory",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := runstore.Open(g.stateDir)
			if err != nil {
				return err
			}
			runs, err := store.List()
			if err != nil {
				return err
			}
			if asJSON {
				out := make([]any, 0, len(runs))
				for _, m := range runs {
					out = append(out, m.Summary())
				}
				enc := json.NewEncoder(g.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			tw := tabwriter.NewWriter(g.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTATUS\tSTRATEGY\tFINISHED\tCHECKPOINT")
			for _, m := range runs {
				finished := "-"
				if m.FinishedAt != nil {
					finished = m.FinishedAt.Local().Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Name, m.Status, m.TrainType, finished, m.Checkpoint.Path)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print run summaries as JSON")

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a run manifest",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := runstore.Open(g.stateDir)
			if err != nil {
				return err
			}
			m, err := store.Load(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(g.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		},
	}
	cmd.AddCommand(list, show)
	return cmd
}
