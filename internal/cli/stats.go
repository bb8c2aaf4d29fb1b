package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-survey-backend/internal/services"
	"github.com/tbourn/go-survey-backend/internal/storage"
)

const maxPrintedComments = 10

func (a *app) statsCmd() *cobra.Command {
	var (
		includeTest bool
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var inc *bool
			if cmd.Flags().Changed("include-test") {
				inc = &includeTest
			}
			return a.withStore(cmd.Context(), func(store storage.Backend) error {
				svc := services.NewStatsService(store, a.cfg.Survey.StatsIncludeTest)
				svc.Timeout = a.cfg.Store.Timeout
				d, err := svc.Dashboard(cmd.Context(), inc)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(d)
				}
				return printDashboard(cmd.OutOrStdout(), d)
			})
		},
	}
	cmd.Flags().BoolVar(&includeTest, "include-test", false, "include test submissions (default STATS_INCLUDE_TEST)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the dashboard as JSON")
	return cmd
}

func printDashboard(out io.Writer, d *services.Dashboard) error {
	if d.State == services.DashboardNoData || d.Summary == nil {
		_, err := fmt.Fprintln(out, "No submissions yet.")
		return err
	}
	s := d.Summary
	fmt.Fprintf(out, "Responses: %d   Respondents: %d   Overall average: %.2f\n",
		s.TotalResponses, s.UniqueRespondents, s.OverallAverage)
	if d.Skipped > 0 {
		fmt.Fprintf(out, "Skipped invalid records: %d\n", d.Skipped)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Q\tAVG\tMEDIAN\tMODE\tSTDDEV\tDISTRIBUTION (1..10)")
	fmt.Fprintln(w, "-\t---\t------\t----\t------\t--------------------")
	for _, q := range s.Questions {
		dist := make([]string, len(q.Distribution))
		for i, n := range q.Distribution {
			dist[i] = strconv.Itoa(n)
		}
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%.2f\t%s\n",
			q.Label, q.Average, q.Median, q.Mode, q.StdDev, strings.Join(dist, " "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(d.Comments) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\nComments (%d):\n", len(d.Comments))
	for i, c := range d.Comments {
		if i == maxPrintedComments {
			fmt.Fprintf(out, "  ... %d more\n", len(d.Comments)-maxPrintedComments)
			break
		}
		fmt.Fprintf(out, "  %s  %s\n", c.Timestamp.Format("2006-01-02 15:04"), c.Text)
	}
	return nil
}
