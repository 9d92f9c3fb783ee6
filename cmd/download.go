package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/killallgit/songscraper/internal/models"
	"github.com/killallgit/songscraper/internal/services/catalog"
	"github.com/killallgit/songscraper/pkg/config"
	"github.com/killallgit/songscraper/pkg/download"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	downloadDir    string
	downloadCovers bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Fetch audio files for stored songs",
	Long: `Download the audio file of every stored song that has an audio URL into
a local directory, named after the song's sanitized title. Files already
present are skipped. Requests are rate limited.

Example:
  songscraper download
  songscraper download --dir ./music --covers`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if downloadDir != "" {
			cfg.Download.Dir = downloadDir
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err = runDownload(ctx, *cfg, downloadCovers, cmd.ErrOrStderr(), cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "destination directory (default from config)")
	downloadCmd.Flags().BoolVar(&downloadCovers, "covers", false, "also download cover images")
}

// downloadSummary counts the outcome of a download run
type downloadSummary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

func downloaderOptions(cfg config.DownloadConfig) download.Options {
	opts := download.DefaultOptions()
	if cfg.Dir != "" {
		opts.Dir = cfg.Dir
	}
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	if cfg.MaxSize > 0 {
		opts.MaxSize = cfg.MaxSize
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	opts.RateLimit = cfg.RateLimit
	return opts
}

// fileJob is one file to fetch
type fileJob struct {
	url      string
	filename string
	kind     download.Kind
}

func downloadJobs(songs []models.Song, covers bool) []fileJob {
	var jobs []fileJob
	for _, song := range songs {
		if song.AudioURL != nil && *song.AudioURL != "" {
			jobs = append(jobs, fileJob{url: *song.AudioURL, filename: song.AudioFilename, kind: download.Audio})
		}
		if covers && song.CoverImageURL != nil && song.CoverFilename != nil {
			jobs = append(jobs, fileJob{url: *song.CoverImageURL, filename: *song.CoverFilename, kind: download.Image})
		}
	}
	return jobs
}

func runDownload(ctx context.Context, cfg config.Config, covers bool, progress, out io.Writer) (*downloadSummary, error) {
	db, err := openCatalogDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	songs, err := catalog.NewRepository(db.DB).ListSongs(ctx)
	if err != nil {
		return nil, err
	}

	opts := downloaderOptions(cfg.Download)
	if removed, err := download.RemoveStale(opts.Dir, time.Hour); err != nil {
		slog.Warn("could not sweep partial downloads", "dir", opts.Dir, "error", err)
	} else if removed > 0 {
		slog.Info("removed partial downloads", "count", removed)
	}

	jobs := downloadJobs(songs, covers)
	downloader := download.NewDownloader(opts)

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	summary := &downloadSummary{}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := downloader.Download(ctx, job.url, job.filename, job.kind)
		switch {
		case err != nil:
			summary.Failed++
			slog.Warn("download failed", "file", job.filename, "url", job.url, "error", err)
		case result.Skipped:
			summary.Skipped++
		default:
			summary.Downloaded++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Fprintf(out, "Downloaded %d files to %s (%d already present, %d failed)\n",
		summary.Downloaded, opts.Dir, summary.Skipped, summary.Failed)
	return summary, nil
}
