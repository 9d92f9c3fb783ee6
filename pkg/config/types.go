package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment  string          `mapstructure:"environment"`
	Server       ServerConfig    `mapstructure:"server"`
	Database     DatabaseConfig  `mapstructure:"database"`
	Scraper      ScraperConfig   `mapstructure:"scraper"`
	Ingest       IngestConfig    `mapstructure:"ingest"`
	Download     DownloadConfig  `mapstructure:"download"`
	RateLimiting RateLimitConfig `mapstructure:"rate_limiting"`
	Logging      LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig contains datastore settings. Driver is sqlite or postgres.
type DatabaseConfig struct {
	Driver                string        `mapstructure:"driver"`
	Path                  string        `mapstructure:"path"`
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Name                  string        `mapstructure:"name"`
	SSLMode               string        `mapstructure:"ssl_mode"`
	PoolSize              int           `mapstructure:"pool_size"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	EnableWAL             bool          `mapstructure:"enable_wal"`
	BusyTimeout           time.Duration `mapstructure:"busy_timeout"`
	LogQueries            bool          `mapstructure:"log_queries"`
}

// ScraperConfig contains extraction pipeline settings
type ScraperConfig struct {
	SearchURL        string          `mapstructure:"search_url"`
	Headless         bool            `mapstructure:"headless"`
	Limit            int             `mapstructure:"limit"`
	MaxPages         int             `mapstructure:"max_pages"`
	Concurrency      int             `mapstructure:"concurrency"`
	CooldownEvery    int             `mapstructure:"cooldown_every"`
	CooldownDuration time.Duration   `mapstructure:"cooldown_duration"`
	BatchPause       time.Duration   `mapstructure:"batch_pause"`
	BatchJitter      time.Duration   `mapstructure:"batch_jitter"`
	PageTimeout      time.Duration   `mapstructure:"page_timeout"`
	ResultsTimeout   time.Duration   `mapstructure:"results_timeout"`
	DetailTimeout    time.Duration   `mapstructure:"detail_timeout"`
	AudioTimeout     time.Duration   `mapstructure:"audio_timeout"`
	FallbackDelay    time.Duration   `mapstructure:"fallback_delay"`
	Selectors        SelectorsConfig `mapstructure:"selectors"`
}

// SelectorsConfig holds the CSS selectors used against the catalog site
type SelectorsConfig struct {
	Row        string `mapstructure:"row"`
	Title      string `mapstructure:"title"`
	Author     string `mapstructure:"author"`
	Duration   string `mapstructure:"duration"`
	DetailLink string `mapstructure:"detail_link"`
	Cover      string `mapstructure:"cover"`
	Genre      string `mapstructure:"genre"`
	Mood       string `mapstructure:"mood"`
	Theme      string `mapstructure:"theme"`
	Play       string `mapstructure:"play"`
	Audio      string `mapstructure:"audio"`
	Next       string `mapstructure:"next"`
}

// IngestConfig contains reconciler settings
type IngestConfig struct {
	Concurrency  int    `mapstructure:"concurrency"`
	MetadataFile string `mapstructure:"metadata_file"`
	FailureLog   string `mapstructure:"failure_log"`
}

// DownloadConfig contains audio/cover download settings
type DownloadConfig struct {
	Dir       string        `mapstructure:"dir"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	MaxSize   int64         `mapstructure:"max_size"`
	UserAgent string        `mapstructure:"user_agent"`
}

// RateLimitConfig contains API rate limiting settings
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	RPS     int  `mapstructure:"rps"`
	Burst   int  `mapstructure:"burst"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}
