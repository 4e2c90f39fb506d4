// Package config defines the codegate configuration: the reusable core
// settings plus channel, store and session options.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	coreconfig "github.com/devsque/codegate/core/config"
	"github.com/devsque/codegate/core/database"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepSchedule = "@every 1m"
	defaultSQLitePath    = "data/codegate.db"
)

// ChannelConfig identifies the distribution channel.
type ChannelConfig struct {
	// ID is the numeric chat id (-100...) or @username used for API calls.
	ID string `yaml:"id" envconfig:"CHANNEL_ID"`
	// Name is the public username used in t.me links.
	Name         string `yaml:"name" envconfig:"CHANNEL_NAME"`
	SubscribeURL string `yaml:"subscribe_url" envconfig:"SUBSCRIBE_URL"`
}

// StoreConfig selects the project store backend.
type StoreConfig struct {
	Driver     string `yaml:"driver" envconfig:"STORE_DRIVER"`
	SQLitePath string `yaml:"sqlite_path" envconfig:"STORE_SQLITE_PATH"`
}

// SessionConfig controls publish session lifetime.
type SessionConfig struct {
	IdleTimeout   *time.Duration `yaml:"idle_timeout" envconfig:"SESSION_IDLE_TIMEOUT"`
	SweepSchedule string         `yaml:"sweep_schedule" envconfig:"SESSION_SWEEP_SCHEDULE"`
}

// Timeout returns the configured idle timeout; zero disables expiry.
func (s SessionConfig) Timeout() time.Duration {
	if s.IdleTimeout == nil {
		return defaultIdleTimeout
	}
	return *s.IdleTimeout
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Channel  ChannelConfig   `yaml:"channel"`
	Store    StoreConfig     `yaml:"store"`
	Database database.Config `yaml:"database"`
	Session  SessionConfig   `yaml:"session"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file at path, overlays environment variables and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	c.Channel.ID = strings.TrimSpace(c.Channel.ID)
	c.Channel.Name = strings.TrimPrefix(strings.TrimSpace(c.Channel.Name), "@")
	if c.Channel.ID == "" {
		return fmt.Errorf("channel.id is required")
	}
	if c.Channel.Name == "" {
		if !strings.HasPrefix(c.Channel.ID, "@") {
			return fmt.Errorf("channel.name is required when channel.id is numeric")
		}
		c.Channel.Name = strings.TrimPrefix(c.Channel.ID, "@")
	}
	if c.Channel.SubscribeURL == "" {
		return fmt.Errorf("channel.subscribe_url is required")
	}
	if u, err := url.Parse(c.Channel.SubscribeURL); err != nil || u.Host == "" {
		return fmt.Errorf("channel.subscribe_url %q is not an absolute URL", c.Channel.SubscribeURL)
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "":
		c.Store.Driver = DriverPostgres
		fallthrough
	case DriverPostgres:
		c.Database = c.Database.WithDefaults()
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres store")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			c.Store.SQLitePath = defaultSQLitePath
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid store.driver %q; allowed: postgres, sqlite, memory", c.Store.Driver)
	}

	if t := c.Session.Timeout(); t < 0 {
		return fmt.Errorf("session.idle_timeout must be >= 0")
	}
	if c.Session.SweepSchedule == "" {
		c.Session.SweepSchedule = defaultSweepSchedule
	}
	if _, err := cron.ParseStandard(c.Session.SweepSchedule); err != nil {
		return fmt.Errorf("invalid session.sweep_schedule %q: %w", c.Session.SweepSchedule, err)
	}
	return nil
}
