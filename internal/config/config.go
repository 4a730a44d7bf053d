package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the WorkWay service.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Boards        BoardsConfig
	FetchTimeout  time.Duration
	SyncInterval  time.Duration
	ExpiryHorizon time.Duration // 0 disables the expiry sweep
	TweetCount    int
	RateLimit     RateLimitConfig
	Retry         RetryConfig
	Twitter       TwitterConfig
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BoardsConfig lists which companies to sync per board.
type BoardsConfig struct {
	Greenhouse BoardConfig `yaml:"greenhouse"`
	Lever      BoardConfig `yaml:"lever"`
}

// BoardConfig describes the companies pulled from one board backend.
type BoardConfig struct {
	Companies []string `yaml:"companies"`
}

// RateLimitConfig controls board-level rate limiting.
type RateLimitConfig struct {
	MinDelay time.Duration // minimum gap between requests to the same board
}

// RetryConfig controls the retry decorator around board fetchers.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// TwitterConfig holds OAuth 1.0a credentials for the announcement job.
// Values are expanded from env vars by Load.
type TwitterConfig struct {
	APIKey       string `yaml:"api_key"`
	APIKeySecret string `yaml:"api_key_secret"`
	AccessToken  string `yaml:"access_token"`
	AccessSecret string `yaml:"access_secret"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	Boards        BoardsConfig       `yaml:"boards"`
	FetchTimeout  string             `yaml:"fetch_timeout"`
	SyncInterval  string             `yaml:"sync_interval"`
	ExpiryHorizon string             `yaml:"expiry_horizon"`
	TweetCount    int                `yaml:"tweet_count"`
	RateLimit     rawRateLimitConfig `yaml:"rate_limit"`
	Retry         rawRetryConfig     `yaml:"retry"`
	Twitter       TwitterConfig      `yaml:"twitter"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawRetryConfig struct {
	MaxRetries int    `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	fetchTimeout := 30 * time.Second // default
	if raw.FetchTimeout != "" {
		fetchTimeout, err = time.ParseDuration(raw.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse fetch_timeout %q: %w", raw.FetchTimeout, err)
		}
	}

	syncInterval := 1 * time.Hour // default
	if raw.SyncInterval != "" {
		syncInterval, err = time.ParseDuration(raw.SyncInterval)
		if err != nil {
			return nil, fmt.Errorf("parse sync_interval %q: %w", raw.SyncInterval, err)
		}
	}

	var expiryHorizon time.Duration // default: sweep disabled
	if raw.ExpiryHorizon != "" {
		expiryHorizon, err = time.ParseDuration(raw.ExpiryHorizon)
		if err != nil {
			return nil, fmt.Errorf("parse expiry_horizon %q: %w", raw.ExpiryHorizon, err)
		}
	}

	minDelay := 2 * time.Second // default
	if raw.RateLimit.MinDelay != "" {
		minDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}

	baseDelay := 1 * time.Second // default
	if raw.Retry.BaseDelay != "" {
		baseDelay, err = time.ParseDuration(raw.Retry.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse retry.base_delay %q: %w", raw.Retry.BaseDelay, err)
		}
	}

	maxRetries := raw.Retry.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}

	tweetCount := raw.TweetCount
	if tweetCount == 0 {
		tweetCount = 3
	}

	addr := raw.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	dbPath := raw.Database.Path
	if dbPath == "" {
		dbPath = "workway.db"
	}

	cfg := &Config{
		Server:        ServerConfig{Addr: addr},
		Database:      DatabaseConfig{Path: dbPath},
		Boards:        raw.Boards,
		FetchTimeout:  fetchTimeout,
		SyncInterval:  syncInterval,
		ExpiryHorizon: expiryHorizon,
		TweetCount:    tweetCount,
		RateLimit:     RateLimitConfig{MinDelay: minDelay},
		Retry:         RetryConfig{MaxRetries: maxRetries, BaseDelay: baseDelay},
		Twitter:       raw.Twitter,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.Boards.Greenhouse.Companies) == 0 && len(cfg.Boards.Lever.Companies) == 0 {
		return fmt.Errorf("at least one company must be configured under boards")
	}
	if cfg.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive, got %v", cfg.SyncInterval)
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %v", cfg.FetchTimeout)
	}
	if cfg.ExpiryHorizon < 0 {
		return fmt.Errorf("expiry_horizon must not be negative, got %v", cfg.ExpiryHorizon)
	}
	if cfg.TweetCount < 1 {
		return fmt.Errorf("tweet_count must be at least 1, got %d", cfg.TweetCount)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	return nil
}
