package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every config key when read from the environment
const EnvPrefix = "SONGSCRAPER"

var (
	once    sync.Once
	initErr error
)

// legacyEnv maps config keys to the unprefixed variables used by existing deployments
var legacyEnv = map[string]string{
	"database.driver":    "DB_DRIVER",
	"database.host":      "DB_HOST",
	"database.port":      "DB_PORT",
	"database.user":      "DB_USER",
	"database.password":  "DB_PASSWORD",
	"database.name":      "DB_NAME",
	"database.path":      "DB_PATH",
	"database.pool_size": "DB_POOL_SIZE",
	"server.port":        "PORT",
}

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		initErr = load()
	})
	return initErr
}

func load() error {
	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env: %w", err)
	}

	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, env := range legacyEnv {
		if err := viper.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}

	configPath := filepath.Clean("./config/settings.yaml")
	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// reset clears loaded state so tests can call Init again
func reset() {
	once = sync.Once{}
	initErr = nil
	viper.Reset()
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	switch driver := viper.GetString("database.driver"); driver {
	case "sqlite":
		if viper.GetString("database.path") == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if viper.GetString("database.host") == "" || viper.GetString("database.name") == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", driver)
	}

	// Auto-correct values that would stall the pipeline
	if viper.GetInt("database.pool_size") <= 0 {
		viper.Set("database.pool_size", 20)
	}
	if viper.GetInt("scraper.concurrency") <= 0 {
		viper.Set("scraper.concurrency", 10)
	}
	if viper.GetInt("ingest.concurrency") <= 0 {
		viper.Set("ingest.concurrency", 10)
	}
	if viper.GetInt("scraper.cooldown_every") <= 0 {
		viper.Set("scraper.cooldown_every", 10)
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Database.PoolSize <= 0 {
		c.Database.PoolSize = 20
	}
	if c.Scraper.Concurrency <= 0 {
		c.Scraper.Concurrency = 10
	}
	if c.Ingest.Concurrency <= 0 {
		c.Ingest.Concurrency = 10
	}
	if c.Scraper.CooldownEvery <= 0 {
		c.Scraper.CooldownEvery = 10
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.max_body_bytes", 1048576)

	// Database defaults
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "./data/music.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "music")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.pool_size", 20)
	viper.SetDefault("database.max_idle_connections", 5)
	viper.SetDefault("database.connection_max_lifetime", time.Hour)
	viper.SetDefault("database.enable_wal", true)
	viper.SetDefault("database.busy_timeout", 5*time.Second)
	viper.SetDefault("database.log_queries", false)

	// Scraper defaults
	viper.SetDefault("scraper.search_url", "https://pixabay.com/music/search/?order=ec")
	viper.SetDefault("scraper.headless", true)
	viper.SetDefault("scraper.limit", 5)
	viper.SetDefault("scraper.max_pages", 50)
	viper.SetDefault("scraper.concurrency", 10)
	viper.SetDefault("scraper.cooldown_every", 10)
	viper.SetDefault("scraper.cooldown_duration", 30*time.Second)
	viper.SetDefault("scraper.batch_pause", 5*time.Second)
	viper.SetDefault("scraper.batch_jitter", 3*time.Second)
	viper.SetDefault("scraper.page_timeout", 2*time.Minute)
	viper.SetDefault("scraper.results_timeout", 2*time.Minute)
	viper.SetDefault("scraper.detail_timeout", 3*time.Minute)
	viper.SetDefault("scraper.audio_timeout", 20*time.Second)
	viper.SetDefault("scraper.fallback_delay", 3*time.Second)

	// Selector defaults
	viper.SetDefault("scraper.selectors.row", "div.audioRow--nAm4Z")
	viper.SetDefault("scraper.selectors.title", ".title--7N7Nr")
	viper.SetDefault("scraper.selectors.author", ".name--yfZpi")
	viper.SetDefault("scraper.selectors.duration", ".duration--bLi2C")
	viper.SetDefault("scraper.selectors.detail_link", `a[href*="/music/"]`)
	viper.SetDefault("scraper.selectors.cover", "img")
	viper.SetDefault("scraper.selectors.genre", `a[href*="/genre/"] span.label--Ngqjq`)
	viper.SetDefault("scraper.selectors.mood", `a[href*="/mood/"] span.label--Ngqjq`)
	viper.SetDefault("scraper.selectors.theme", `a[href*="/theme/"] span.label--Ngqjq`)
	viper.SetDefault("scraper.selectors.play", `button[aria-label="paused"], button.playIcon--3-Qup, .container--vGyBg`)
	viper.SetDefault("scraper.selectors.audio", "audio > source, audio")
	viper.SetDefault("scraper.selectors.next", `a[rel="next"]`)

	// Ingest defaults
	viper.SetDefault("ingest.concurrency", 10)
	viper.SetDefault("ingest.metadata_file", "./songs_metadata.json")
	viper.SetDefault("ingest.failure_log", "./songs_error.json")

	// Download defaults
	viper.SetDefault("download.dir", "./downloads")
	viper.SetDefault("download.timeout", 5*time.Minute)
	viper.SetDefault("download.rate_limit", 2.0)
	viper.SetDefault("download.max_size", 500*1024*1024)
	viper.SetDefault("download.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.rps", 10)
	viper.SetDefault("rate_limiting.burst", 20)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.json", false)
}
