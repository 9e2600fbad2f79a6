package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
	"github.com/sw33tLie/jirascope/internal/utils"
	"github.com/sw33tLie/jirascope/pkg/jira"
)

// newJiraClient builds a client from the loaded configuration and the
// global --proxy flag.
func newJiraClient() (*jira.Client, error) {
	cfg := jira.NewConfig(viper.GetString(keyURL), viper.GetString(keyEmail), viper.GetString(keyAPIToken))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []jira.Option{jira.WithLogger(utils.Log)}
	proxy, _ := rootCmd.PersistentFlags().GetString("proxy")
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		opts = append(opts, jira.WithProxy(proxyURL))
	}
	return jira.NewClient(cfg, opts...), nil
}
