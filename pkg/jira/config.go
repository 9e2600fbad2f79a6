package jira

import (
	"fmt"
	"strings"
)

// Environment variable names for the connection settings.
const (
	EnvURL      = "JIRA_URL"
	EnvEmail    = "JIRA_EMAIL"
	EnvAPIToken = "JIRA_API_TOKEN"
)

// Config holds the connection settings. It is built once at startup and
// passed by value.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
}

// NewConfig trims the base URL and returns the config.
func NewConfig(baseURL, email, token string) Config {
	return Config{
		BaseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Email:    strings.TrimSpace(email),
		APIToken: strings.TrimSpace(token),
	}
}

// Validate reports every missing setting by its environment variable name.
func (c Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, EnvURL)
	}
	if c.Email == "" {
		missing = append(missing, EnvEmail)
	}
	if c.APIToken == "" {
		missing = append(missing, EnvAPIToken)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
