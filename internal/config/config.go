// Package config loads service settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendBigQuery = "bigquery"
)

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Report        ReportConfig        `yaml:"report"`
	Notion        NotionConfig        `yaml:"notion"`
	Log           LogConfig           `yaml:"log"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// StoreConfig selects where ledger data and notifications live.
type StoreConfig struct {
	Backend      string `yaml:"backend"`
	ProjectID    string `yaml:"project_id,omitempty"`
	DatasetID    string `yaml:"dataset_id,omitempty"`
	SnapshotFile string `yaml:"snapshot_file,omitempty"` // JSON seed for the memory backend
}

// NotificationsConfig controls the periodic rule evaluation.
type NotificationsConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	Users     []string      `yaml:"users,omitempty"`
}

type ReportConfig struct {
	Bucket   string `yaml:"bucket,omitempty"`
	Currency string `yaml:"currency"`
}

type NotionConfig struct {
	Token      string `yaml:"token,omitempty"`
	DatabaseID string `yaml:"database_id,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Store: StoreConfig{
			Backend:   BackendMemory,
			DatasetID: "finance",
		},
		Notifications: NotificationsConfig{
			Interval:  5 * time.Minute,
			Workers:   2,
			QueueSize: 100,
		},
		Report: ReportConfig{Currency: "USD"},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. An empty or missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("Load: reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("Load: parsing %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("Save: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("Save: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString("FINANCE_PORT", &c.Server.Port)
	setString("FINANCE_STORE_BACKEND", &c.Store.Backend)
	setString("FINANCE_BQ_PROJECT", &c.Store.ProjectID)
	setString("FINANCE_BQ_DATASET", &c.Store.DatasetID)
	setString("FINANCE_SNAPSHOT_FILE", &c.Store.SnapshotFile)
	setString("FINANCE_CURRENCY", &c.Report.Currency)
	setString("FINANCE_LOG_LEVEL", &c.Log.Level)
	setString("FINANCE_LOG_FORMAT", &c.Log.Format)
	setString("GCS_BUCKET", &c.Report.Bucket)
	setString("NOTION_TOKEN", &c.Notion.Token)
	setString("NOTION_DATABASE_ID", &c.Notion.DatabaseID)

	if v := getenv("FINANCE_NOTIFY_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FINANCE_NOTIFY_INTERVAL: %w", err)
		}
		c.Notifications.Interval = d
	}
	if v := getenv("FINANCE_NOTIFY_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINANCE_NOTIFY_WORKERS: %w", err)
		}
		c.Notifications.Workers = n
	}
	if v := getenv("FINANCE_NOTIFY_USERS"); v != "" {
		c.Notifications.Users = nil
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				c.Notifications.Users = append(c.Notifications.Users, u)
			}
		}
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendBigQuery:
		if c.Store.ProjectID == "" {
			return errors.New("store.project_id is required for the bigquery backend")
		}
		if c.Store.DatasetID == "" {
			return errors.New("store.dataset_id is required for the bigquery backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Notifications.Interval <= 0 {
		return fmt.Errorf("notifications.interval must be positive, got %s", c.Notifications.Interval)
	}
	if c.Notifications.Workers < 1 {
		return fmt.Errorf("notifications.workers must be at least 1, got %d", c.Notifications.Workers)
	}
	if c.Notifications.QueueSize < 1 {
		return fmt.Errorf("notifications.queue_size must be at least 1, got %d", c.Notifications.QueueSize)
	}
	if (c.Notion.Token == "") != (c.Notion.DatabaseID == "") {
		return errors.New("notion.token and notion.database_id must be set together")
	}
	return nil
}

// NotionEnabled reports whether a Notion mirror is configured.
func (c *Config) NotionEnabled() bool {
	return c.Notion.Token != "" && c.Notion.DatabaseID != ""
}
