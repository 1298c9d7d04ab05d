// Package config loads the JSON client configuration: server endpoint,
// session identity and local database location.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	_ "embed"
)

//go:embed config.sample.json
var sampleConfig []byte

const (
	CONFIG_DIR_PATH  = "shoplist"
	CONFIG_FILE_PATH = "config.json"
	DB_FILE_PATH     = "shoplist.db"
	CONFIG_DIR_PERM  = 0755
	CONFIG_FILE_PERM = 0644
)

// Config is the on-disk client configuration.
type Config struct {
	ServerURL string `json:"server_url" validate:"required,url"`
	UserID    string `json:"user_id" validate:"required"`
	// DBPath overrides the default local database location.
	DBPath string `json:"db_path,omitempty"`
	// RequestTimeoutSec bounds each acknowledged send; 0 means the default.
	RequestTimeoutSec int  `json:"request_timeout_sec,omitempty" validate:"gte=0,lte=300"`
	Verbose           bool `json:"verbose,omitempty"`
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Timeout returns the request timeout as a duration, defaulting to 10s.
func (c Config) Timeout() time.Duration {
	if c.RequestTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// DatabasePath returns the configured DB path, or the default next to the
// config file.
func (c Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DB_FILE_PATH
	}
	return filepath.Join(dir, CONFIG_DIR_PATH, DB_FILE_PATH)
}

// DefaultPath returns the config file location in the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, CONFIG_DIR_PATH, CONFIG_FILE_PATH), nil
}

// Load reads and validates the config at path. When the file does not exist
// the embedded sample is written there first, so a fresh install starts from
// a template the user can edit.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := writeSample(path); err != nil {
			return nil, err
		}
		data = sampleConfig
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON in config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

func writeSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), CONFIG_DIR_PERM); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, sampleConfig, CONFIG_FILE_PERM); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}
	return nil
}
