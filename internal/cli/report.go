package cli

import (
	"fmt"
	"io"

	"github.com/2beens/jogtracker/internal/jogsync"
	"github.com/2beens/jogtracker/internal/report"

	"github.com/spf13/cobra"
)

func (a *app) reportCmd() *cobra.Command {
	var (
		descending bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Weekly reports of your jogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCoordinator(cmd, func(c *jogsync.Coordinator) error {
				reports := report.NewCollection()
				reports.Replace(c.Jogs())
				if descending {
					reports.ToggleSortOrder()
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), report.Views(reports.Reports()))
				}
				return printReports(cmd.OutOrStdout(), reports.Reports())
			})
		},
	}
	cmd.Flags().BoolVar(&descending, "desc", false, "newest week first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}

func printReports(w io.Writer, reports []report.WeeklyReport) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "no dated jogs to report on")
		return err
	}

	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, r.Label())
		fmt.Fprintf(w, "  jogs:           %d\n", len(r.Jogs))
		fmt.Fprintf(w, "  total distance: %.2f\n", r.TotalDistance())
		fmt.Fprintf(w, "  total time:     %.0f min\n", r.TotalTime())
		if speed, ok := r.AverageSpeed(); ok {
			fmt.Fprintf(w, "  average speed:  %.3f per min\n", speed)
		} else {
			fmt.Fprintln(w, "  average speed:  n/a")
		}
		if avg, ok := r.AverageTime(); ok {
			fmt.Fprintf(w, "  average time:   %.1f min\n", avg)
		}
	}
	return nil
}
