package internal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the client connection settings.
type Config struct {
	Host        string
	Port        int
	DialTimeout time.Duration
}

const DEFAULT_HOST = "127.0.0.1"
const DEFAULT_PORT = 6969
const DEFAULT_DIAL_TIMEOUT = 5 * time.Second

func DefaultConfig() *Config {
	return &Config{
		Host:        DEFAULT_HOST,
		Port:        DEFAULT_PORT,
		DialTimeout: DEFAULT_DIAL_TIMEOUT,
	}
}

// ServerConfig holds the settings of the bitcask server binary. Values
// come from an optional YAML file; flags may override them afterwards.
type ServerConfig struct {
	Path                string `yaml:"path"`                  // log file
	Host                string `yaml:"host"`                  // listen host
	Port                int    `yaml:"port"`                  // listen port, 0 picks a free one
	SyncIntervalSeconds uint   `yaml:"sync_interval_seconds"` // 0 disables periodic fsync
	SyncOnWrite         bool   `yaml:"sync_on_write"`
	LogLevel            string `yaml:"log_level"`
}

const (
	DEFAULT_LOG_PATH      = "./data/bitcask.log"
	DEFAULT_SYNC_INTERVAL = 15
	DEFAULT_LOG_LEVEL     = "info"
)

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Path:                DEFAULT_LOG_PATH,
		Host:                DEFAULT_HOST,
		Port:                DEFAULT_PORT,
		SyncIntervalSeconds: DEFAULT_SYNC_INTERVAL,
		LogLevel:            DEFAULT_LOG_LEVEL,
	}
}

// LoadServerConfig reads path over the defaults. An empty path returns
// the defaults unchanged.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyServerDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Path == "" {
		cfg.Path = DEFAULT_LOG_PATH
	}
	if cfg.Host == "" {
		cfg.Host = DEFAULT_HOST
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DEFAULT_LOG_LEVEL
	}
}

func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Path == "" {
		return errors.New("log path must not be empty")
	}
	return nil
}
