package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/killallgit/songscraper/internal/models"
	"github.com/killallgit/songscraper/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory sqlite database
const MemoryPath = ":memory:"

type DB struct {
	*gorm.DB
}

// Initialize opens the configured datastore, sizes the pool and pings it.
// An unreachable datastore is returned as an error; callers treat it as fatal.
func Initialize(cfg config.DatabaseConfig) (*DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Error
	if cfg.LogQueries {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 20
	}
	// Every connection to :memory: is a separate database
	if cfg.Driver == "sqlite" && isMemory(cfg.Path) {
		poolSize = 1
	}
	idle := cfg.MaxIdleConnections
	if idle <= 0 || idle > poolSize {
		idle = poolSize
	}
	lifetime := cfg.ConnectionMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	sqlDB.SetMaxOpenConns(poolSize)
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetConnMaxLifetime(lifetime)

	conn := &DB{DB: db}
	if err := conn.HealthCheck(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return conn, nil
}

// OpenMemory opens an in-memory sqlite catalog, used by tests and dry runs
func OpenMemory() (*DB, error) {
	return Initialize(config.DatabaseConfig{Driver: "sqlite", Path: MemoryPath})
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = MemoryPath
		}
		if !isMemory(path) {
			dir := filepath.Dir(path)
			if dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("failed to create database directory: %w", err)
				}
			}
		}
		return sqlite.Open(sqliteDSN(path, cfg)), nil
	case "postgres":
		return postgres.Open(PostgresDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

func isMemory(path string) bool {
	return path == "" || path == MemoryPath
}

func sqliteDSN(path string, cfg config.DatabaseConfig) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	// Writers take the lock up front so concurrent ingest waits instead of failing
	params.Set("_txlock", "immediate")

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	params.Set("_busy_timeout", fmt.Sprintf("%d", busy.Milliseconds()))

	if cfg.EnableWAL && !isMemory(path) {
		params.Set("_journal_mode", "WAL")
	}
	return path + "?" + params.Encode()
}

// PostgresDSN builds a key/value connection string from the datastore settings
func PostgresDSN(cfg config.DatabaseConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, cfg.Password, cfg.Name, sslMode)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is working
func (db *DB) HealthCheck() error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Migrate creates or updates the catalog schema
func (db *DB) Migrate() error {
	joins := []struct {
		field string
		join  any
	}{
		{"Genres", &models.SongGenre{}},
		{"Moods", &models.SongMood{}},
		{"Themes", &models.SongTheme{}},
	}
	for _, j := range joins {
		if err := db.DB.SetupJoinTable(&models.Song{}, j.field, j.join); err != nil {
			return fmt.Errorf("setting up %s join table: %w", j.field, err)
		}
	}

	all := models.All()
	if err := db.DB.AutoMigrate(all...); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	slog.Debug("migrated catalog schema", "models", len(all))
	return nil
}
