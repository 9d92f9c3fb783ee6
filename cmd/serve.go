package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/killallgit/songscraper/api"
	"github.com/killallgit/songscraper/api/types"
	"github.com/killallgit/songscraper/internal/services/catalog"
	"github.com/killallgit/songscraper/pkg/config"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the song catalog API server with the configured settings.

Routes:
  GET  /            welcome message
  GET  /api/songs   every stored song with its genres, moods and themes
  POST /api/song    add one song
  POST /api/songs   add a batch of songs, skipping duplicates
  GET  /health      datastore health
  GET  /version     build information

Example:
  songscraper serve
  songscraper serve --port 9090
  songscraper serve --host 127.0.0.1 --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Flags override config values
		if serverHost != "" {
			cfg.Server.Host = serverHost
		}
		if serverPort != 0 {
			cfg.Server.Port = serverPort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, *cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

// runServer serves until ctx is done or the listener fails
func runServer(ctx context.Context, cfg config.Config) error {
	db, err := openCatalogDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	server := api.NewServer(cfg)
	server.SetDependencies(&types.Dependencies{
		DB:      db,
		Catalog: catalog.NewService(catalog.NewRepository(db.DB)),
		Build:   buildInfo(),
	})
	if err := server.Initialize(); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return err
	}

	slog.Info("server gracefully stopped")
	return nil
}
