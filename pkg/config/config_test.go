package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray settings or .env leak in
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		reset()
	})
	reset()
	return dir
}

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		wantErr bool
		check   func(t *testing.T)
	}{
		{
			name:  "defaults without config file",
			setup: func(t *testing.T, dir string) {},
			check: func(t *testing.T) {
				assert.Equal(t, 3000, GetInt("server.port"))
				assert.Equal(t, "sqlite", GetString("database.driver"))
				assert.Equal(t, 20, GetInt("database.pool_size"))
				assert.Equal(t, 10, GetInt("scraper.cooldown_every"))
				assert.Equal(t, 30*time.Second, GetDuration("scraper.cooldown_duration"))
			},
		},
		{
			name: "settings file",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
				content := `
server:
  port: 8080
scraper:
  concurrency: 4
`
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "settings.yaml"), []byte(content), 0o644))
			},
			check: func(t *testing.T) {
				assert.Equal(t, 8080, GetInt("server.port"))
				assert.Equal(t, 4, GetInt("scraper.concurrency"))
			},
		},
		{
			name: "unprefixed datastore variables",
			setup: func(t *testing.T, dir string) {
				t.Setenv("DB_HOST", "db.internal")
				t.Setenv("DB_USER", "scraper")
				t.Setenv("DB_NAME", "catalog")
				t.Setenv("DB_POOL_SIZE", "7")
				t.Setenv("PORT", "9090")
			},
			check: func(t *testing.T) {
				assert.Equal(t, "db.internal", GetString("database.host"))
				assert.Equal(t, "scraper", GetString("database.user"))
				assert.Equal(t, "catalog", GetString("database.name"))
				assert.Equal(t, 7, GetInt("database.pool_size"))
				assert.Equal(t, 9090, GetInt("server.port"))
			},
		},
		{
			name: "prefixed variables",
			setup: func(t *testing.T, dir string) {
				t.Setenv("SONGSCRAPER_SCRAPER_MAX_PAGES", "3")
			},
			check: func(t *testing.T) {
				assert.Equal(t, 3, GetInt("scraper.max_pages"))
			},
		},
		{
			name: "dotenv file",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PASSWORD=from-dotenv\n"), 0o644))
				t.Cleanup(func() { _ = os.Unsetenv("DB_PASSWORD") })
			},
			check: func(t *testing.T) {
				assert.Equal(t, "from-dotenv", GetString("database.password"))
			},
		},
		{
			name: "invalid port",
			setup: func(t *testing.T, dir string) {
				t.Setenv("PORT", "70000")
			},
			wantErr: true,
		},
		{
			name: "unsupported driver",
			setup: func(t *testing.T, dir string) {
				t.Setenv("DB_DRIVER", "oracle")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdirTemp(t)
			tt.setup(t, dir)

			err := Init()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t)
			}
		})
	}
}

func TestGetConfig(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, Init())

	cfg, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "./songs_metadata.json", cfg.Ingest.MetadataFile)
	assert.Equal(t, "./songs_error.json", cfg.Ingest.FailureLog)
	assert.Equal(t, `a[rel="next"]`, cfg.Scraper.Selectors.Next)
	assert.Equal(t, 20*time.Second, cfg.Scraper.AudioTimeout)
	assert.True(t, cfg.Scraper.Headless)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Server:   ServerConfig{Port: 3000},
				Database: DatabaseConfig{Driver: "sqlite", Path: "./test.db"},
			},
		},
		{
			name: "invalid port",
			config: &Config{
				Server:   ServerConfig{Port: 0},
				Database: DatabaseConfig{Driver: "sqlite"},
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			config: &Config{
				Server:   ServerConfig{Port: 3000},
				Database: DatabaseConfig{Driver: "mysql"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 10, tt.config.Scraper.Concurrency)
			assert.Equal(t, 20, tt.config.Database.PoolSize)
		})
	}
}
