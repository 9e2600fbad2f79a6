package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/jirascope/internal/utils"
)

// testCmd implements: jirascope test
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the Jira connection and show account info",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newJiraClient()
		if err != nil {
			return err
		}
		me, err := client.Myself(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Connected as: %s (%s)\n", me.Get("displayName").String(), me.Get("emailAddress").String())
		return nil
	},
}

// projectsCmd implements: jirascope projects
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List all accessible Jira projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newJiraClient()
		if err != nil {
			return err
		}
		projects, err := client.Projects(cmd.Context())
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No accessible projects found.")
			return nil
		}

		utils.Log.Infof("Found %d accessible projects", len(projects))
		for _, p := range projects {
			archived := ""
			if p.Archived {
				archived = " (archived)"
			}
			fmt.Printf("  %-12s %s%s\n", p.Key, p.Name, archived)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(projectsCmd)
}
