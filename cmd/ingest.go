package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/killallgit/songscraper/internal/services/catalog"
	"github.com/killallgit/songscraper/internal/services/ingest"
	"github.com/killallgit/songscraper/pkg/config"
	"github.com/spf13/cobra"
)

var ingestInput string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a metadata file into the catalog",
	Long: `Read extraction records from a metadata file written by "scrape --output"
and persist them. Songs already in the catalog are skipped. Records that fail
are appended to the failure log without disturbing earlier entries.

Example:
  songscraper ingest
  songscraper ingest --input ./songs_metadata.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if ingestInput == "" {
			ingestInput = cfg.Ingest.MetadataFile
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err = runIngest(ctx, *cfg, ingestInput, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestInput, "input", "i", "", "metadata file to ingest (default from config)")
}

// newReconciler wires a reconciler to the catalog store and failure log
func newReconciler(store catalog.Store, cfg config.IngestConfig) *ingest.Reconciler {
	return ingest.NewReconciler(store,
		ingest.WithConcurrency(cfg.Concurrency),
		ingest.WithFailureLog(ingest.NewFailureLog(cfg.FailureLog)),
		ingest.WithLogger(slog.Default()),
	)
}

func runIngest(ctx context.Context, cfg config.Config, input string, out io.Writer) (*ingest.Report, error) {
	records, err := ingest.ReadRecords(input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}

	db, err := openCatalogDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	report, err := newReconciler(catalog.NewRepository(db.DB), cfg.Ingest).Ingest(ctx, records)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Ingested %d records: %d inserted, %d skipped, %d failed\n",
		len(records), report.Inserted, report.Skipped, len(report.Failures))
	if len(report.Failures) > 0 {
		fmt.Fprintf(out, "Failed records were appended to %s\n", cfg.Ingest.FailureLog)
	}
	return report, nil
}
