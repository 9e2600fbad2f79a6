package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/jirascope/internal/utils"
	"github.com/sw33tLie/jirascope/pkg/federated"
	"github.com/sw33tLie/jirascope/pkg/ingest"
	"github.com/sw33tLie/jirascope/pkg/storage"
)

// optimizeCmd implements: jirascope optimize DB...
var optimizeCmd = &cobra.Command{
	Use:   "optimize DB...",
	Short: "Rebuild the search index, analyze and vacuum stores",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, dbPath := range args {
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				utils.Log.Warnf("Database not found: %s", dbPath)
				continue
			}
			if err := optimizeStore(cmd, dbPath); err != nil {
				return err
			}
		}
		return nil
	},
}

func optimizeStore(cmd *cobra.Command, dbPath string) error {
	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.GetStats(cmd.Context())
	if err != nil {
		return err
	}
	utils.Log.Infof("Optimizing %s (%d tickets)...", dbPath, stats.Tickets)
	if err := db.Optimize(cmd.Context()); err != nil {
		return fmt.Errorf("optimizing %s: %w", dbPath, err)
	}
	utils.Log.Infof("Done! %s optimized.", dbPath)
	return nil
}

// statsCmd implements: jirascope stats DB...
var statsCmd = &cobra.Command{
	Use:   "stats [DB...]",
	Short: "Prints statistics about the tickets in one or more stores.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{ingest.DefaultDBPath}
		}

		var stores []federated.Store
		defer func() { federated.New(stores...).Close() }()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "STORE\tTICKETS\tCOMMENTS\tCHANGES\tPROJECTS\t")
		for _, dbPath := range args {
			db, err := storage.OpenReadOnly(dbPath)
			if err != nil {
				utils.Log.Warnf("Skipping %s: %v", dbPath, err)
				continue
			}
			stores = append(stores, db)

			s, err := db.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t\n", dbPath, s.Tickets, s.Comments, s.ChangelogEntries, s.Projects)
		}
		if len(stores) == 0 {
			return federated.ErrNoStores
		}

		total, err := federated.New(stores...).Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(w, " \t \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%d\t\n", total.Tickets, total.Comments, total.ChangelogEntries, total.Projects)

		return w.Flush()
	},
}

// shellCmd implements: jirascope shell [DB]
var shellCmd = &cobra.Command{
	Use:   "shell [DB]",
	Short: "Start an interactive sqlite3 shell on a store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := ingest.DefaultDBPath
		if len(args) == 1 {
			dbPath = args[0]
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the shell")
		}

		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			utils.Log.Warnf("Couldn't retrieve schema: %v", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(shellCmd)
}
