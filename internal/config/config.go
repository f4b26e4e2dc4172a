// Package config loads settings in priority order: defaults, the user config
// file, the project config file, TODO_* environment variables. Command-line
// flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Backends accepted for Config.Backend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const fileName = "todo.toml"

// Config is the resolved configuration.
type Config struct {
	Backend   string `toml:"backend"`
	DataFile  string `toml:"data_file"`
	Database  string `toml:"database"`
	Scope     string `toml:"scope"`
	IDLength  int    `toml:"id_length"`
	Theme     string `toml:"theme"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Files lists the config files that were read, in order.
	Files []string `toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Backend:   BackendJSON,
		DataFile:  "todos.json",
		Database:  "todos.db",
		Scope:     "todo-list",
		IDLength:  16,
		Theme:     "classic",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load resolves the configuration. A non-empty explicit path replaces the
// project file lookup and must exist.
func Load(explicit string) (*Config, error) {
	cfg := Default()

	if p := userConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", p, err)
		}
	}

	if explicit != "" {
		if err := loadFile(cfg, explicit); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
	} else if _, err := os.Stat(fileName); err == nil {
		if err := loadFile(cfg, fileName); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", fileName, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendJSON, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid backend %q: must be json, sqlite or memory", c.Backend)
	}
	if c.IDLength < 1 || c.IDLength > 32 {
		return fmt.Errorf("invalid id_length %d: must be between 1 and 32", c.IDLength)
	}
	if strings.TrimSpace(c.Scope) == "" {
		return errors.New("scope must not be empty")
	}
	return nil
}

func userConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "todo", fileName)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func loadFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return err
	}
	cfg.Files = append(cfg.Files, path)
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TODO_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TODO_DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv("TODO_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("TODO_SCOPE"); v != "" {
		cfg.Scope = v
	}
	if v := os.Getenv("TODO_ID_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TODO_ID_LENGTH: not a number: %s", v)
		}
		cfg.IDLength = n
	}
	if v := os.Getenv("TODO_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODO_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	return nil
}
