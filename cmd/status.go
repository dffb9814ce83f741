package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pitchforge/pitchforge/internal/scrape"
)

var statusSession string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lead and opportunity counts by status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		sessionID := statusSession
		if sessionID == "" {
			recorded, err := scrape.ReadSessionFile(cfg.Export.SessionFile)
			if err != nil {
				return err
			}
			sessionID = recorded
		}

		leads, err := st.CountLeadsByStatus(ctx, sessionID)
		if err != nil {
			return eris.Wrap(err, "status: count leads")
		}
		opps, err := st.CountOpportunitiesByStatus(ctx, sessionID)
		if err != nil {
			return eris.Wrap(err, "status: count opportunities")
		}

		if sessionID != "" {
			fmt.Fprintf(os.Stdout, "Session: %s\n\n", sessionID)
		}

		leadRows := make(map[string]int, len(leads))
		for status, n := range leads {
			leadRows[string(status)] = n
		}
		oppRows := make(map[string]int, len(opps))
		for status, n := range opps {
			oppRows[string(status)] = n
		}

		formatStatusTable(os.Stdout, "LEADS", leadRows)
		fmt.Fprintln(os.Stdout)
		formatStatusTable(os.Stdout, "OPPORTUNITIES", oppRows)
		return nil
	},
}

func formatStatusTable(out io.Writer, title string, counts map[string]int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tCOUNT\n", title)

	statuses := make([]string, 0, len(counts))
	total := 0
	for status, n := range counts {
		statuses = append(statuses, status)
		total += n
	}
	sort.Strings(statuses)

	for _, status := range statuses {
		fmt.Fprintf(w, "%s\t%d\n", status, counts[status])
	}
	fmt.Fprintf(w, "total\t%d\n", total)
	_ = w.Flush()
}

func init() {
	statusCmd.Flags().StringVar(&statusSession, "session", "", "limit counts to one session (defaults to the last recorded session)")
	rootCmd.AddCommand(statusCmd)
}
