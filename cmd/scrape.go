package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/killallgit/songscraper/internal/services/catalog"
	"github.com/killallgit/songscraper/internal/services/scraper"
	"github.com/killallgit/songscraper/pkg/config"
	"github.com/spf13/cobra"
)

var (
	scrapeLimit    int
	scrapeMaxPages int
	scrapeOutput   string
	scrapeIngest   bool
	scrapeInstall  bool
	scrapeHeadful  bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl the catalog site",
	Long: `Walk the paginated search results with a headless Chromium, enrich every
song from its detail page and capture its audio URL.

Each page batch is either written to a metadata file (--output, the default)
for a later "ingest" run, or persisted directly (--ingest).

Example:
  songscraper scrape --limit 20
  songscraper scrape --limit 0 --max-pages 5 --ingest
  songscraper scrape --install --output ./songs.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyScrapeFlags(cmd, cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		browser, err := scraper.LaunchPlaywright(scraper.PlaywrightOptions{
			Headless:  cfg.Scraper.Headless,
			UserAgent: cfg.Download.UserAgent,
			Install:   scrapeInstall,
		})
		if err != nil {
			return err
		}
		defer browser.Close()

		return runScrape(ctx, *cfg, browser, scrapeIngest, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&scrapeLimit, "limit", "l", 5, "maximum songs to collect (0 = no limit)")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 50, "maximum result pages to visit")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "metadata file to write (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeIngest, "ingest", false, "persist each batch directly instead of writing a file")
	scrapeCmd.Flags().BoolVar(&scrapeInstall, "install", false, "download the playwright driver and Chromium first")
	scrapeCmd.Flags().BoolVar(&scrapeHeadful, "headful", false, "show the browser window")
	scrapeCmd.MarkFlagsMutuallyExclusive("output", "ingest")
}

// applyScrapeFlags copies explicitly set flags over the loaded config
func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("limit") {
		cfg.Scraper.Limit = scrapeLimit
	}
	if flags.Changed("max-pages") {
		cfg.Scraper.MaxPages = scrapeMaxPages
	}
	if flags.Changed("headful") {
		cfg.Scraper.Headless = !scrapeHeadful
	}
	if scrapeOutput != "" {
		cfg.Ingest.MetadataFile = scrapeOutput
	}
}

// newSink picks where batches go. Direct ingest opens the datastore; the
// returned close func releases it.
func newSink(cfg config.Config, direct bool) (scraper.Sink, func() error, error) {
	if !direct {
		return scraper.NewFileSink(cfg.Ingest.MetadataFile), func() error { return nil }, nil
	}

	db, err := openCatalogDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	reconciler := newReconciler(catalog.NewRepository(db.DB), cfg.Ingest)
	return scraper.IngestSink(reconciler), db.Close, nil
}

func runScrape(ctx context.Context, cfg config.Config, browser scraper.Browser, direct bool, out io.Writer) error {
	sink, closeSink, err := newSink(cfg, direct)
	if err != nil {
		return err
	}
	defer closeSink()

	slog.Info("starting scrape",
		"url", cfg.Scraper.SearchURL,
		"limit", cfg.Scraper.Limit,
		"max_pages", cfg.Scraper.MaxPages,
		"ingest", direct,
	)

	stats, err := scraper.NewPipeline(browser, sink, cfg.Scraper, scraper.WithLogger(slog.Default())).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("scrape interrupted")
		}
		return err
	}

	fmt.Fprintf(out, "Scraped %d songs from %d pages (%s, %d dropped)\n",
		stats.Emitted, stats.Pages, stats.Reason, stats.Dropped)
	if !direct {
		fmt.Fprintf(out, "Metadata written to %s\n", cfg.Ingest.MetadataFile)
	}
	return nil
}
