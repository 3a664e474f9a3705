// Package config loads the server configuration from a YAML file and the environment.
package config

import (
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

const dbname = "skystore.db"

type (
	// A Config holds all the settings of a skystore instance.
	// Environment variables take precedence over the file.
	Config struct {
		Address        string  `koanf:"address" env:"SKYSTORE_ADDRESS"`
		DatabasePath   string  `koanf:"database_path" env:"SKYSTORE_DATABASE_PATH"`
		MediaPath      string  `koanf:"media_path" env:"SKYSTORE_MEDIA_PATH"`
		SecretKey      string  `koanf:"secret_key" env:"SKYSTORE_SECRET_KEY"`
		NoRegistration bool    `koanf:"no_registration" env:"SKYSTORE_NO_REGISTRATION"`
		Session        Session `koanf:"session"`
		Cache          Cache   `koanf:"cache"`
		Log            Log     `koanf:"log"`
	}

	// Session holds the token lifetimes.
	Session struct {
		AccessTokenTTL  time.Duration `koanf:"access_token_ttl" env:"SKYSTORE_SESSION_ACCESS_TOKEN_TTL"`
		RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl" env:"SKYSTORE_SESSION_REFRESH_TOKEN_TTL"`
	}

	// Cache selects the listing cache.
	// RedisURL wins over the in-process LRU when set. A zero Size disables the cache.
	Cache struct {
		RedisURL string        `koanf:"redis_url" env:"SKYSTORE_CACHE_REDIS_URL"`
		Size     int           `koanf:"size" env:"SKYSTORE_CACHE_SIZE"`
		TTL      time.Duration `koanf:"ttl" env:"SKYSTORE_CACHE_TTL"`
	}

	// Log configures the logger. File enables the rotating file output.
	Log struct {
		Level      string `koanf:"level" env:"SKYSTORE_LOG_LEVEL"`
		File       string `koanf:"file" env:"SKYSTORE_LOG_FILE"`
		MaxSize    int    `koanf:"max_size" env:"SKYSTORE_LOG_MAX_SIZE"`       // megabytes
		MaxBackups int    `koanf:"max_backups" env:"SKYSTORE_LOG_MAX_BACKUPS"` // files
		MaxAge     int    `koanf:"max_age" env:"SKYSTORE_LOG_MAX_AGE"`         // days
	}
)

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		Address:   "localhost:5000",
		MediaPath: "media",
		Session: Session{
			AccessTokenTTL:  24 * time.Hour,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		Cache: Cache{
			Size: 256,
			TTL:  5 * time.Minute,
		},
		Log: Log{
			Level:      "info",
			MaxSize:    20,
			MaxBackups: 2,
			MaxAge:     10,
		},
	}
}

// Load reads the given YAML file (optional) over the defaults then applies the environment.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		konf := koanf.New(".")
		if err := konf.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "could not load %s", filename)
		}

		if err := konf.Unmarshal("", cfg); err != nil {
			return nil, errors.Wrap(err, "could not decode configuration")
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "could not read environment")
	}

	return cfg, nil
}

// Validate checks the settings required to run the server.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret_key not found")
	}

	if c.Session.AccessTokenTTL <= 0 || c.Session.RefreshTokenTTL <= 0 {
		return errors.New("session token ttl must be positive")
	}

	if c.Session.AccessTokenTTL > c.Session.RefreshTokenTTL {
		return errors.New("access_token_ttl must not exceed refresh_token_ttl")
	}

	return nil
}

// Database returns the path of the database file.
func (c *Config) Database() string {
	if len(c.DatabasePath) == 0 {
		return dbname
	}
	return filepath.Join(c.DatabasePath, dbname)
}
