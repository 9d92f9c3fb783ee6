package cmd

import (
	"fmt"
	"io"

	"github.com/killallgit/songscraper/internal/database"
	"github.com/killallgit/songscraper/pkg/config"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the catalog schema",
	Long: `Create or update the catalog tables (songs, genres, moods, themes and
their link tables) in the configured datastore.

Migration is additive and safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runMigrate(cfg.Database, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cfg config.DatabaseConfig, out io.Writer) error {
	db, err := database.Initialize(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Schema is up to date (%s)\n", cfg.Driver)
	return nil
}

// openCatalogDB opens the datastore and makes sure the schema exists
func openCatalogDB(cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Initialize(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
