package cmd

import (
	"github.com/spf13/cobra"
	"github.com/sw33tLie/jirascope/internal/server"
	"github.com/sw33tLie/jirascope/internal/utils"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the ticket search API",
	Long: `Start a JSON API over one or more ticket stores.

Stores come from JIRA_DB_PATH, --db and --db-dir, defaulting to jira.db.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fed, err := openStores(cmd)
		if err != nil {
			return err
		}
		defer fed.Close()

		// Auth
		user, _ := cmd.Flags().GetString("username")
		pass, _ := cmd.Flags().GetString("password")
		addr, _ := cmd.Flags().GetString("bind")

		utils.Log.Infof("Serving %d store(s)", fed.Len())
		return server.New(fed, user, pass).Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(webCmd)

	addStoreFlags(webCmd)
	webCmd.Flags().StringP("bind", "b", "127.0.0.1:5000", "Address to bind the server to")
	webCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	webCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
}
