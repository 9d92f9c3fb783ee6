package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/killallgit/songscraper/internal/logging"
	"github.com/killallgit/songscraper/pkg/config"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "songscraper",
	Short: "Song catalog scraper and API server",
	Long: `songscraper - crawl a music catalog site into a relational store

The scraper walks paginated search results with a headless browser, enriches
every song from its detail page and hands each batch to the ingestion
reconciler or a metadata file. The stored catalog is served over a small
JSON API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// loadConfig initializes configuration and installs the logger. Flags win over
// configured logging settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, fmt.Errorf("error initializing config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if flag := cmd.Flags().Lookup("log-level"); flag != nil && flag.Changed {
		level = flag.Value.String()
	}
	jsonLogs := cfg.Logging.JSON
	if cmd.Flags().Changed("json-logs") {
		jsonLogs, _ = cmd.Flags().GetBool("json-logs")
	}
	logging.Setup(level, jsonLogs)

	slog.Debug("configuration loaded", "environment", cfg.Environment, "driver", cfg.Database.Driver)
	return cfg, nil
}
