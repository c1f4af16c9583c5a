// Package config resolves the JIRA connection settings from, in order of
// precedence: command-line flags (applied by the caller), environment
// variables, an optional backlogctl.yaml file, and built-in defaults. A .env
// file in the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJiraURL is the instance used when none is configured.
const DefaultJiraURL = "https://issues.redhat.com"

// Config holds the resolved JIRA connection settings.
type Config struct {
	URL   string
	Token string
}

// Load resolves the configuration. file names an explicit config file; when
// empty, backlogctl.yaml is looked up in the working directory and config/.
// A missing config file is fine, a malformed one is not.
func Load(file string) (Config, error) {
	// Populate the environment from .env if present.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("jira.url", DefaultJiraURL)
	_ = v.BindEnv("jira.url", "JIRA_URL")
	_ = v.BindEnv("jira.token", "JIRA_TOKEN")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("backlogctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	return Config{
		URL:   v.GetString("jira.url"),
		Token: v.GetString("jira.token"),
	}, nil
}
