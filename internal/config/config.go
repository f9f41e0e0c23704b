// Package config loads ~/.config/taskboard/config.toml and applies
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL       = "http://localhost:8000/api/v1"
	DefaultLogLevel     = "info"
	DefaultFixupWorkers = 8

	// DefaultDragDistance is in terminal cells; one cell is roughly 8px wide
	DefaultDragDistance = 2
)

// Config represents the config.toml file.
type Config struct {
	API   API   `toml:"api"`
	Board Board `toml:"board"`
	Log   Log   `toml:"log"`

	// DataDir holds the sqlite snapshot and the log file. Not read from toml.
	DataDir string `toml:"-"`
}

// API configures the REST client.
type API struct {
	URL string `toml:"url"`
	// Timeout is a Go duration ("5s"). Empty means no client timeout.
	Timeout string `toml:"timeout"`
}

// Board configures the kanban view.
type Board struct {
	// Project is the default project id for board and task commands.
	Project string `toml:"project"`
	// DragDistance is the pointer travel, in cells, before a press becomes a drag.
	DragDistance float64 `toml:"drag-distance"`
	// FixupWorkers bounds concurrent order fixup requests after a drop.
	FixupWorkers int `toml:"fixup-workers"`
}

// Log configures the diagnostics log file.
type Log struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// RequestTimeout parses API.Timeout; zero means none.
func (c *Config) RequestTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.API.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse api.timeout %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("api.timeout must not be negative")
	}
	return d, nil
}

// DatabasePath returns where the sqlite snapshot lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "taskboard.db")
}

// Load reads the global config file, applies defaults, then environment
// overrides. A missing file is not an error.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}
	return LoadFile(filepath.Join(homeDir, ".config", "taskboard", "config.toml"), filepath.Join(homeDir, ".taskboard"))
}

// LoadFile is Load with explicit paths.
func LoadFile(path, dataDir string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.DataDir = dataDir
	applyDefaults(cfg)
	if err := overrideFromEnv(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Log.Path) == "" {
		cfg.Log.Path = filepath.Join(cfg.DataDir, "taskboard.log")
	}
	if _, err := cfg.RequestTimeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")
	if cfg.API.URL == "" {
		cfg.API.URL = DefaultAPIURL
	}
	if cfg.Board.DragDistance <= 0 {
		cfg.Board.DragDistance = DefaultDragDistance
	}
	if cfg.Board.FixupWorkers <= 0 {
		cfg.Board.FixupWorkers = DefaultFixupWorkers
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func overrideFromEnv(cfg *Config) error {
	if url := os.Getenv("TASKBOARD_API_URL"); url != "" {
		cfg.API.URL = strings.TrimRight(url, "/")
	}
	if project := os.Getenv("TASKBOARD_PROJECT"); project != "" {
		cfg.Board.Project = project
	}
	if level := os.Getenv("TASKBOARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if workers := os.Getenv("TASKBOARD_FIXUP_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil || n <= 0 {
			return fmt.Errorf("TASKBOARD_FIXUP_WORKERS must be a positive integer, got %q", workers)
		}
		cfg.Board.FixupWorkers = n
	}
	if dir := os.Getenv("TASKBOARD_HOME"); dir != "" {
		cfg.DataDir = dir
	}
	return nil
}
