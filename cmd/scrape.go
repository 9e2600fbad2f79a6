package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/jirascope/internal/utils"
	"github.com/sw33tLie/jirascope/pkg/ingest"
	"github.com/sw33tLie/jirascope/pkg/storage"
	"github.com/sw33tLie/jirascope/pkg/ticket"
)

// dbAuto is the --db value when the flag is given without a file name.
const dbAuto = "auto"

// scrapeCmd implements: jirascope scrape
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Export Jira issues to JSON files or SQLite stores",
	Long: `Export Jira issues with their comments and history.

Select issues with --project, --projects, --all-projects or a custom --jql query.
Without --db every ticket is written to OUTPUT/KEY.json (OUTPUT/PROJECT/KEY.json
for project exports) next to an _index.json summary. With --db tickets are
upserted into a SQLite store: --db=FILE names it, a bare --db uses PROJECT.db
per project (jira.db for --jql).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		projectList, _ := cmd.Flags().GetString("projects")
		allProjects, _ := cmd.Flags().GetBool("all-projects")
		jql, _ := cmd.Flags().GetString("jql")
		since, _ := cmd.Flags().GetString("since")
		output, _ := cmd.Flags().GetString("output")
		quiet, _ := cmd.Flags().GetBool("quiet")

		dbMode := cmd.Flags().Changed("db")
		dbName, _ := cmd.Flags().GetString("db")
		if dbName == dbAuto {
			dbName = ""
		}

		client, err := newJiraClient()
		if err != nil {
			return err
		}

		var projects []string
		switch {
		case jql != "":
		case allProjects:
			utils.Log.Info("Fetching list of all accessible projects...")
			all, err := client.Projects(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range all {
				projects = append(projects, p.Key)
			}
			utils.Log.Infof("Found %d projects: %s", len(projects), strings.Join(projects, ", "))
		case projectList != "":
			projects = storage.NormalizeKeys(projectList)
		case project != "":
			projects = []string{storage.NormalizeKey(project)}
		default:
			return fmt.Errorf("either --project, --projects, --all-projects or --jql is required")
		}

		type job struct{ project, jql string }
		var jobs []job
		if jql != "" {
			jobs = append(jobs, job{jql: jql})
		}
		for _, p := range projects {
			jobs = append(jobs, job{project: p, jql: ingest.ProjectJQL(p, since)})
		}

		total := 0
		for i, j := range jobs {
			if j.project != "" && len(jobs) > 1 {
				utils.Log.Infof("Project %d/%d: %s", i+1, len(jobs), j.project)
			}

			var sink ingest.Sink
			var dbSink *ingest.DBSink
			dest := output
			if dbMode {
				dest = ingest.DBPath(dbName, j.project, len(projects) > 1)
				dbSink = &ingest.DBSink{
					Path: dest,
					NewLock: func(path string) (ingest.Locker, error) {
						return utils.NewDBLock(path)
					},
				}
				sink = dbSink
			} else {
				if j.project != "" {
					dest = filepath.Join(output, j.project)
				}
				sink = &ingest.FileSink{Dir: dest}
			}

			cfg := ingest.Config{
				Source: client,
				Sink:   sink,
				Log:    utils.Log,
			}
			if !quiet {
				cfg.OnTicketDone = printProgress
			}

			res, err := ingest.Run(cmd.Context(), cfg, j.jql)
			if res != nil {
				if !quiet && res.Index.TotalIssues > 0 {
					fmt.Fprintln(os.Stderr)
				}
				for _, w := range res.Warnings {
					utils.Log.Warn(w)
				}
				total += res.Index.TotalIssues
			}
			if err == nil && dbSink != nil {
				printStoreSummary(cmd, dbSink)
			}
			if cerr := sink.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			if res.Index.TotalIssues > 0 || dbSink == nil {
				utils.Log.Infof("Exported %d issues to %s", res.Index.TotalIssues, dest)
			}
		}

		if len(jobs) > 1 {
			utils.Log.Infof("COMPLETE: Exported %d total issues from %d projects", total, len(projects))
		}
		return nil
	},
}

func printProgress(done, total int, t *ticket.Ticket) {
	summary := ""
	if t.Summary != nil {
		summary = utils.Truncate(*t.Summary, 50)
	}
	fmt.Fprintf(os.Stderr, "\r\033[K  [%d/%d] %s: %s", done, total, t.Key, summary)
}

func printStoreSummary(cmd *cobra.Command, s *ingest.DBSink) {
	stats, err := s.Stats(cmd.Context())
	if err != nil {
		utils.Log.Warnf("Could not read stats for %s: %v", s.Path, err)
		return
	}
	if stats == nil {
		return
	}
	utils.Log.Infof("%s now holds %d tickets, %d comments, %d changelog entries", s.Path, stats.Tickets, stats.Comments, stats.ChangelogEntries)
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringP("project", "p", "", "Jira project key (e.g. PROJ)")
	scrapeCmd.Flags().String("projects", "", "Comma-separated project keys (e.g. PROJ1,PROJ2)")
	scrapeCmd.Flags().Bool("all-projects", false, "Export every accessible project")
	scrapeCmd.Flags().StringP("jql", "j", "", "Custom JQL query (overrides the project flags and --since)")
	scrapeCmd.Flags().StringP("since", "s", "", "Only export issues created since this date (YYYY-MM-DD)")
	scrapeCmd.Flags().StringP("output", "o", "jira_export", "Output directory for JSON files")
	scrapeCmd.Flags().String("db", "", "Export to a SQLite store instead of JSON files (--db=FILE, or bare --db for PROJECT.db)")
	scrapeCmd.Flags().Lookup("db").NoOptDefVal = dbAuto
	scrapeCmd.Flags().BoolP("quiet", "q", false, "Suppress progress output")
}
