package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/jirascope/internal/utils"
	"github.com/sw33tLie/jirascope/pkg/federated"
)

// searchCmd implements: jirascope search [TEXT]
var searchCmd = &cobra.Command{
	Use:   "search [TEXT]",
	Short: "Search tickets across one or more stores",
	Long: `Search tickets across every selected store, newest updates first.

Stores come from JIRA_DB_PATH, --db and --db-dir, defaulting to jira.db.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		project, _ := cmd.Flags().GetString("project")
		issueType, _ := cmd.Flags().GetString("type")
		page, _ := cmd.Flags().GetInt("page")

		fed, err := openStores(cmd)
		if err != nil {
			return err
		}
		defer fed.Close()

		res, err := fed.Search(cmd.Context(), federated.Query{
			Text:      strings.Join(args, " "),
			Status:    status,
			Project:   project,
			IssueType: issueType,
			Page:      page,
		})
		if err != nil {
			return err
		}
		if res.Total == 0 {
			fmt.Println("No tickets found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSTATUS\tTYPE\tASSIGNEE\tUPDATED\tSUMMARY\tSTORE")
		for _, t := range res.Tickets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", t.Key, t.Status, t.IssueType, t.AssigneeName, shortDate(t.Updated), utils.Truncate(t.Summary, 60), t.Store)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nPage %d of %d (%d tickets)\n", res.Page, res.TotalPages, res.Total)
		return nil
	},
}

func shortDate(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

func init() {
	rootCmd.AddCommand(searchCmd)

	addStoreFlags(searchCmd)
	searchCmd.Flags().String("status", "", "Only tickets with this status")
	searchCmd.Flags().String("project", "", "Only tickets of this project")
	searchCmd.Flags().String("type", "", "Only tickets of this issue type")
	searchCmd.Flags().Int("page", 1, "Result page")
}
