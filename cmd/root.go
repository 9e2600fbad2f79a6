package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/jirascope/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	   _ _
	  (_|_)_ __ __ _ ___  ___ ___  _ __   ___
	  | | | '__/ _' / __|/ __/ _ \| '_ \ / _ \
	  | | | | | (_| \__ \ (_| (_) | |_) |  __/
	 _/ |_|_|  \__,_|___/\___\___/| .__/ \___|
	|__/                          |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jirascope",
	Short: "Export Jira tickets into searchable local stores.",
	Long: LOGO + `jirascope pulls issues, comments and history from Jira Cloud into JSON files
or SQLite stores with full-text search, and queries many stores as one.

Credentials are read from JIRA_URL, JIRA_EMAIL and JIRA_API_TOKEN, from a .env
file in the working directory, or from the config file.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jirascope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file, .env and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".jirascope")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".jirascope.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file: %s", err)
			}
		}
	}

	// A .env file in the working directory is merged over the config file.
	mergeDotEnv(viper.GetViper(), ".env")

	// Set default empty values for all keys
	viper.SetDefault(keyURL, "")
	viper.SetDefault(keyEmail, "")
	viper.SetDefault(keyAPIToken, "")
	viper.SetDefault(keyDBPath, "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Config keys. AutomaticEnv maps each to its upper-case environment variable.
const (
	keyURL      = "jira_url"
	keyEmail    = "jira_email"
	keyAPIToken = "jira_api_token"
	keyDBPath   = "jira_db_path"
)

func mergeDotEnv(v *viper.Viper, path string) {
	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return // Ignore error if .env doesn't exist
	}
	if err := v.MergeConfigMap(env.AllSettings()); err != nil {
		utils.Log.Warnf("Could not load %s: %v", path, err)
	}
}
