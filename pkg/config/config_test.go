package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("Driver = %q, want sqlite3", cfg.Database.Driver)
	}
	if cfg.Analysis.Workers != 1 || cfg.Analysis.MinimumPairs != 1 {
		t.Errorf("Analysis = %+v", cfg.Analysis)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  driver: postgres
  postgres:
    host: db.internal
    port: 5433
redis:
  enabled: true
  cacheTTL: 10m
analysis:
  workers: 4
  normalize: true
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FA_POSTGRES_USER", "analyst")
	t.Setenv("FA_LOGGING_FORMAT", "JSON")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "postgres" || cfg.Database.Postgres.Host != "db.internal" || cfg.Database.Postgres.Port != 5433 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.Postgres.User != "analyst" {
		t.Errorf("User = %q, want env override", cfg.Database.Postgres.User)
	}
	if cfg.Database.Postgres.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want default kept", cfg.Database.Postgres.SSLMode)
	}
	if !cfg.Redis.Enabled || cfg.Redis.CacheTTL != 10*time.Minute {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Analysis.Workers != 4 || !cfg.Analysis.Normalize {
		t.Errorf("Analysis = %+v", cfg.Analysis)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	want := "host=db.internal port=5433 user=analyst password= dbname=fraganalyzer sslmode=disable"
	if got := cfg.Database.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"zero workers", func(c *Config) { c.Analysis.Workers = 0 }, true},
		{"zero pairs", func(c *Config) { c.Analysis.MinimumPairs = 0 }, true},
		{"inverted bounds", func(c *Config) { c.Analysis.HeatMapLower = 1; c.Analysis.HeatMapUpper = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
