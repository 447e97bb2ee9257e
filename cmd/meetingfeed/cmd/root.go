package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opencivic/meetingfeed"
	"github.com/opencivic/meetingfeed/internal/config"
	"github.com/opencivic/meetingfeed/pkg/logging"
	"github.com/opencivic/meetingfeed/pkg/registry"
)

var (
	configFile string
	verbose    bool
	quiet      bool

	// cfg is the merged configuration, populated by initConfig.
	cfg = &config.Config{}

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meetingfeed",
	Short: "Public meeting aggregation CLI",
	Long: `Meetingfeed collects upcoming public-meeting announcements from
government agency websites and folds them into a single normalized feed.

Each crawl pass fetches every registered agency site, normalizes the
observed meetings into a common schema, and reconciles them against the
records from previous passes, tracking reschedules and cancellations
over time.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.meetingfeed.yaml)")
	rootCmd.PersistentFlags().String("registry", "", "agency registry YAML (default is the embedded registry)")
	rootCmd.PersistentFlags().String("snapshot", "", "record store snapshot file")
	rootCmd.PersistentFlags().String("timezone", "", "IANA zone for observations without an explicit zone")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")

	for _, flag := range []string{"registry", "snapshot", "timezone", "verbose", "quiet"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("Failed to bind %s flag: %v", flag, err))
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".meetingfeed")
	}

	loaded, err := config.Load()
	cobra.CheckErr(err)
	cfg = loaded

	if cfg.ConfigFile != "" && cfg.Verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", cfg.ConfigFile)
	}

	configureLogging()
}

// configureLogging sets up the logging system based on flags and environment.
func configureLogging() {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	if cfg.Quiet {
		level = zerolog.WarnLevel
	}
	if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" && !cfg.Verbose && !cfg.Quiet {
		level = parsed
	}

	logging.SetDefault(logging.Default().Level(level))
}

// newClient assembles a Client from the merged configuration, loading
// the store snapshot when one is configured.
func newClient(extraOpts ...meetingfeed.Option) (*meetingfeed.Client, error) {
	var opts []meetingfeed.Option

	if cfg.Registry != "" {
		opts = append(opts, meetingfeed.WithRegistryFile(cfg.Registry))
	}
	if cfg.Timezone != "" {
		opts = append(opts, meetingfeed.WithTimezone(cfg.Timezone))
	}
	opts = append(opts, extraOpts...)

	client, err := meetingfeed.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}

	if cfg.Snapshot != "" {
		if err := client.Load(cfg.Snapshot); err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
	}

	return client, nil
}

// loadRegistry resolves the configured agency registry: the file named
// by --registry, or the embedded default.
func loadRegistry() (*registry.Registry, error) {
	if cfg.Registry != "" {
		return registry.Load(cfg.Registry)
	}
	return registry.NewEmbedded()
}

// saveSnapshot persists the client store when a snapshot path is set.
func saveSnapshot(client *meetingfeed.Client) error {
	if cfg.Snapshot == "" {
		return nil
	}
	return client.Save(cfg.Snapshot)
}

// parseSince interprets the --since value as either a duration back
// from now ("72h") or an absolute RFC 3339 timestamp.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --since %q: expected duration or RFC 3339 timestamp", s)
	}
	return ts, nil
}
