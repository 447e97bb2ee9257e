// Package config loads CLI configuration from flags, environment
// variables, .env files, and an optional YAML config file, in that
// order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from all sources.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool

	// Config file actually used, if any.
	ConfigFile string

	// Crawl configuration
	Registry    string
	Snapshot    string
	Timezone    string
	Concurrency int
	Timeout     time.Duration
	Tolerance   time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// Load reads configuration from all sources in order of precedence:
// 1. Command-line flags (bound into viper by the CLI layer)
// 2. Environment variables (MEETINGFEED_ prefix)
// 3. .env files
// 4. Config file (~/.meetingfeed.yaml)
func Load() (*Config, error) {
	// Load .env files first (before Viper env binding)
	LoadEnvFiles()

	viper.SetEnvPrefix("meetingfeed")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	return &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),

		ConfigFile: viper.ConfigFileUsed(),

		Registry:    viper.GetString("registry"),
		Snapshot:    viper.GetString("snapshot"),
		Timezone:    viper.GetString("timezone"),
		Concurrency: viper.GetInt("concurrency"),
		Timeout:     viper.GetDuration("timeout"),
		Tolerance:   viper.GetDuration("tolerance"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
	}, nil
}

// LoadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func LoadEnvFiles() []string {
	var loaded []string
	for _, envFile := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envFile); err == nil {
			loaded = append(loaded, envFile)
		}
	}
	return loaded
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
