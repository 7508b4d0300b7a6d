package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Notifications.Interval != 5*time.Minute {
		t.Errorf("Interval = %s, want 5m", cfg.Notifications.Interval)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
store:
  backend: bigquery
  project_id: my-project
  dataset_id: ledger
notifications:
  interval: 90s
  workers: 4
  queue_size: 10
  users: [alice, bob]
report:
  currency: EUR
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Notifications.Interval != 90*time.Second {
		t.Errorf("Interval = %s, want 1m30s", cfg.Notifications.Interval)
	}
	if len(cfg.Notifications.Users) != 2 {
		t.Errorf("Users = %v", cfg.Notifications.Users)
	}
	if cfg.Report.Currency != "EUR" {
		t.Errorf("Currency = %q", cfg.Report.Currency)
	}
	// keys absent from the file keep their defaults
	if cfg.Log.Format != "console" {
		t.Errorf("Log.Format = %q, want console", cfg.Log.Format)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FINANCE_PORT":            "7000",
		"FINANCE_NOTIFY_INTERVAL": "1m",
		"FINANCE_NOTIFY_WORKERS":  "3",
		"FINANCE_NOTIFY_USERS":    " u1, ,u2 ",
		"GCS_BUCKET":              "reports",
	}
	cfg := Default()
	if err := cfg.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv() error: %v", err)
	}

	if cfg.Server.Port != "7000" || cfg.Report.Bucket != "reports" {
		t.Errorf("string overrides not applied: %+v", cfg)
	}
	if cfg.Notifications.Interval != time.Minute || cfg.Notifications.Workers != 3 {
		t.Errorf("numeric overrides not applied: %+v", cfg.Notifications)
	}
	if strings.Join(cfg.Notifications.Users, ",") != "u1,u2" {
		t.Errorf("Users = %v, want [u1 u2]", cfg.Notifications.Users)
	}
}

func TestApplyEnv_BadValues(t *testing.T) {
	for _, key := range []string{"FINANCE_NOTIFY_INTERVAL", "FINANCE_NOTIFY_WORKERS"} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(func(k string) string {
				if k == key {
					return "soon"
				}
				return ""
			})
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "mongo" }, wantErr: "unknown store backend"},
		{name: "bigquery without project", mutate: func(c *Config) { c.Store.Backend = BackendBigQuery }, wantErr: "project_id"},
		{name: "zero interval", mutate: func(c *Config) { c.Notifications.Interval = 0 }, wantErr: "interval"},
		{name: "no workers", mutate: func(c *Config) { c.Notifications.Workers = 0 }, wantErr: "workers"},
		{name: "notion half configured", mutate: func(c *Config) { c.Notion.Token = "secret" }, wantErr: "notion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Notifications.Users = []string{"alice"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Notifications.Interval != cfg.Notifications.Interval {
		t.Errorf("Interval = %s, want %s", loaded.Notifications.Interval, cfg.Notifications.Interval)
	}
}
