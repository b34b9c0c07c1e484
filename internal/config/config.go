// Package config loads the runtime configuration from the environment,
// an optional .env file and an optional .repocompare.yaml file.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults for configuration values.
const (
	DefaultCacheTTLSeconds = 3600
)

// Config holds the runtime configuration.
type Config struct {
	GitHubToken string        // API token used by the GitHub gateway adapter
	CacheTTL    time.Duration // Maximum age of a cached record
	DatabaseDSN string        // PostgreSQL DSN; empty selects the in-memory store
}

// Load reads configuration with the precedence: environment variables
// (REPOCOMPARE_ prefix, GITHUB_TOKEN as a fallback for the token), then the
// config file, then defaults. A missing config file is not an error.
func Load() (*Config, error) {
	// Best effort; a missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(".repocompare")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix("REPOCOMPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("cache-ttl", DefaultCacheTTLSeconds)
	v.SetDefault("github-token", "")
	v.SetDefault("database-dsn", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	token := v.GetString("github-token")
	if token == "" {
		// Conventional fallback used by most GitHub tooling.
		v.BindEnv("github-token-fallback", "GITHUB_TOKEN")
		token = v.GetString("github-token-fallback")
	}

	return &Config{
		GitHubToken: token,
		CacheTTL:    time.Duration(v.GetInt("cache-ttl")) * time.Second,
		DatabaseDSN: v.GetString("database-dsn"),
	}, nil
}
