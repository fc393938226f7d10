// Package config loads tool configuration from a TOML file, environment
// variables and built-in defaults, in ascending priority order for the
// latter two.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config is the complete tool configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Log      LogConfig      `mapstructure:"log"`

	configPath string
}

// ServerConfig describes the server connection.
type ServerConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	SubmitTimeout  time.Duration `mapstructure:"submit_timeout"`
}

// AccountsConfig names the accounts to track and where their files live.
type AccountsConfig struct {
	Dir   string   `mapstructure:"dir"`
	Names []string `mapstructure:"names"`
}

// JournalConfig configures the local snapshot journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// AuditConfig configures the PostgreSQL settlement export.
type AuditConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Path returns the config file the Config was loaded from, empty when only
// defaults and environment were used.
func (c *Config) Path() string { return c.configPath }

// Validate checks the configuration for contradictions and unusable values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("config: server url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("config: server url scheme must be ws or wss, got %q", u.Scheme)
	}
	if c.Server.ConnectTimeout <= 0 {
		return errors.New("config: connect_timeout must be positive")
	}
	if c.Journal.Enabled && c.Journal.Dir == "" {
		return errors.New("config: journal enabled without a directory")
	}
	if c.Audit.Enabled {
		if c.Audit.Host == "" || c.Audit.Database == "" {
			return errors.New("config: audit enabled without host and database")
		}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
