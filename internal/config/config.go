// Package config loads the application configuration from an optional
// YAML file with EASEL_* environment overrides applied on top.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Fallback store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSqlite   = "sqlite"
)

// DefaultPath is consulted when no explicit config file is given.
const DefaultPath = ".easel/config.yaml"

// RemoteConfig addresses the remote graph service.
type RemoteConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// SyncConfig tunes the sync executor.
type SyncConfig struct {
	Parallelism int `yaml:"parallelism"`
}

// ServerConfig configures the built-in graph service.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// RedisConfig addresses a Redis fallback store.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig addresses a PostgreSQL fallback store.
type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
}

// EncryptionConfig enables at-rest encryption of backups. Keys are
// base64 encoded 32 byte values; fallback keys keep old backups
// readable during key rotation.
type EncryptionConfig struct {
	ActiveKey    string   `yaml:"active_key"`
	FallbackKeys []string `yaml:"fallback_keys"`
}

// Enabled reports whether at-rest encryption is configured.
func (e EncryptionConfig) Enabled() bool { return e.ActiveKey != "" }

// Keys decodes the configured keys.
func (e EncryptionConfig) Keys() (active []byte, fallback [][]byte, err error) {
	active, err = decodeKey(e.ActiveKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store encryption active key: %w", err)
	}
	for i, raw := range e.FallbackKeys {
		key, err := decodeKey(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("store encryption fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(raw string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// StoreConfig selects and configures the fallback cache backend.
// Path is the backup directory for the file backend and the database
// file for sqlite.
type StoreConfig struct {
	Backend    string           `yaml:"backend"`
	Path       string           `yaml:"path"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Encryption EncryptionConfig `yaml:"encryption"`
}

// Config is the application configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Remote   RemoteConfig `yaml:"remote"`
	Sync     SyncConfig   `yaml:"sync"`
	Server   ServerConfig `yaml:"server"`
	Store    StoreConfig  `yaml:"store"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		LogLevel: "info",
		Remote: RemoteConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 30,
		},
		Sync: SyncConfig{
			Parallelism: 4,
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Store: StoreConfig{
			Backend: StoreFile,
			Redis: RedisConfig{
				Address: "localhost:6379",
			},
		},
	}
}

// Load builds the configuration: defaults first, then the YAML file,
// then environment overrides. An explicitly given path must exist; the
// default path is optional.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; defaults plus env apply.
	default:
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the rest of the application cannot
// act on.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis, StorePostgres, StoreSqlite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Sync.Parallelism < 1 {
		return fmt.Errorf("sync parallelism must be at least 1, got %d", c.Sync.Parallelism)
	}
	if c.Remote.TimeoutSeconds < 1 {
		return fmt.Errorf("remote timeout must be at least 1s, got %ds", c.Remote.TimeoutSeconds)
	}
	if c.Store.Encryption.Enabled() {
		if _, _, err := c.Store.Encryption.Keys(); err != nil {
			return err
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.LogLevel, "EASEL_LOG_LEVEL")
	setString(&cfg.Remote.BaseURL, "EASEL_REMOTE_URL")
	setString(&cfg.Server.Address, "EASEL_SERVER_ADDR")
	setString(&cfg.Store.Backend, "EASEL_STORE_BACKEND")
	setString(&cfg.Store.Path, "EASEL_STORE_PATH")
	setString(&cfg.Store.Redis.Address, "EASEL_REDIS_ADDR")
	setString(&cfg.Store.Redis.Password, "EASEL_REDIS_PASSWORD")
	setString(&cfg.Store.Postgres.ConnString, "EASEL_POSTGRES_URL")
	setString(&cfg.Store.Encryption.ActiveKey, "EASEL_STORE_ENCRYPTION_KEY")

	if err := setInt(&cfg.Remote.TimeoutSeconds, "EASEL_REMOTE_TIMEOUT"); err != nil {
		return err
	}
	if err := setInt(&cfg.Sync.Parallelism, "EASEL_SYNC_PARALLELISM"); err != nil {
		return err
	}
	if err := setInt(&cfg.Store.Redis.DB, "EASEL_REDIS_DB"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	*dst = n
	return nil
}
