package cmd

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/jirascope/internal/utils"
	"github.com/sw33tLie/jirascope/pkg/federated"
	"github.com/sw33tLie/jirascope/pkg/ingest"
)

// storePaths collects store files from JIRA_DB_PATH (colon separated), the
// --db flag and every *.db in --db-dir, falling back to jira.db.
func storePaths(cmd *cobra.Command) []string {
	var paths []string
	for _, p := range strings.Split(viper.GetString(keyDBPath), ":") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	dbs, _ := cmd.Flags().GetStringSlice("db")
	paths = append(paths, dbs...)

	if dir, _ := cmd.Flags().GetString("db-dir"); dir != "" {
		matches, err := filepath.Glob(filepath.Join(dir, "*.db"))
		if err != nil {
			utils.Log.Warnf("Could not list %s: %v", dir, err)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}

	if len(paths) == 0 {
		paths = []string{ingest.DefaultDBPath}
	}
	return paths
}

func openStores(cmd *cobra.Command) (*federated.Federation, error) {
	fed, err := federated.OpenPaths(storePaths(cmd), utils.Log)
	if err != nil {
		return nil, err
	}
	for _, p := range fed.Paths() {
		utils.Log.Debugf("Using store %s", p)
	}
	return fed, nil
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("db", nil, "SQLite store file(s), comma-separated or repeated")
	cmd.Flags().String("db-dir", "", "Directory whose *.db files are all loaded")
}
