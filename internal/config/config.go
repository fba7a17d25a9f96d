package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"camcam/internal/ophim"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Images   ImagesConfig   `yaml:"images"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Search   SearchConfig   `yaml:"search"`
	Player   PlayerConfig   `yaml:"player"`
	Sessions SessionsConfig `yaml:"sessions"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type UpstreamConfig struct {
	BaseURL   string          `yaml:"base_url"`
	Timeout   time.Duration   `yaml:"timeout"` // 0 = none
	Endpoints ophim.Endpoints `yaml:"endpoints"`
}

type ImagesConfig struct {
	Host          string `yaml:"host"`
	UploadsPath   string `yaml:"uploads_path"`
	Placeholder   string `yaml:"placeholder"`
	Proxy         bool   `yaml:"proxy"`
	CacheCapacity int    `yaml:"cache_capacity"`
	CacheMaxSize  int64  `yaml:"cache_max_size"` // bytes
}

type CatalogConfig struct {
	HomeLimit int `yaml:"home_limit"`
	PageSize  int `yaml:"page_size"`
	MaxPages  int `yaml:"max_pages"`
	Skeletons int `yaml:"skeletons"`
}

type SearchConfig struct {
	Debounce        time.Duration `yaml:"debounce"`
	MinQuery        int           `yaml:"min_query"`
	PageSize        int           `yaml:"page_size"`
	SuggestionLimit int           `yaml:"suggestion_limit"`
}

type PlayerConfig struct {
	UpcomingCeiling int           `yaml:"upcoming_ceiling"`
	NetworkRetries  int           `yaml:"network_retries"`
	MediaRecoveries int           `yaml:"media_recoveries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	ManifestTimeout time.Duration `yaml:"manifest_timeout"`
}

type SessionsConfig struct {
	Capacity   int           `yaml:"capacity"`
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0,
		},
		Upstream: UpstreamConfig{
			BaseURL:   "https://ophim1.com",
			Timeout:   0,
			Endpoints: ophim.DefaultEndpoints(),
		},
		Images: ImagesConfig{
			Host:          "https://img.ophim.live",
			UploadsPath:   "/uploads/movies/",
			Placeholder:   "https://via.placeholder.com/300x450?text=No+Image",
			Proxy:         false,
			CacheCapacity: 1000,
			CacheMaxSize:  128 * 1024 * 1024, // 128 MB
		},
		Catalog: CatalogConfig{
			HomeLimit: 12,
			PageSize:  20,
			MaxPages:  5,
			Skeletons: 6,
		},
		Search: SearchConfig{
			Debounce:        300 * time.Millisecond,
			MinQuery:        2,
			PageSize:        10,
			SuggestionLimit: 8,
		},
		Player: PlayerConfig{
			UpcomingCeiling: 500,
			NetworkRetries:  3,
			MediaRecoveries: 1,
			RetryBackoff:    500 * time.Millisecond,
			ManifestTimeout: 15 * time.Second,
		},
		Sessions: SessionsConfig{
			Capacity:   10000,
			TTL:        2 * time.Hour,
			CookieName: "camcam_session",
		},
		Database: DatabaseConfig{
			Path: "data/camcam.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults;
// ${VAR} references are expanded before parsing.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
