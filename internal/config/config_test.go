package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(brandLabelEnv, "")

	cfg := Load()
	if cfg.Database.DSN != "rankings.db" {
		t.Errorf("dsn = %s, want rankings.db", cfg.Database.DSN)
	}
	if cfg.Tracker.BrandLabel != "하시에" {
		t.Errorf("brand = %s, want 하시에", cfg.Tracker.BrandLabel)
	}
	if cfg.Scraper.Enabled {
		t.Error("scraper should be disabled by default")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
database:
  dsn: file-dsn.db
tracker:
  brandLabel: 파일브랜드
scraper:
  enabled: true
  interval: 30m
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(brandLabelEnv, "환경브랜드")

	cfg := Load()
	if cfg.Database.DSN != "file-dsn.db" {
		t.Errorf("dsn = %s, want the file value", cfg.Database.DSN)
	}
	// Environment wins over the file.
	if cfg.Tracker.BrandLabel != "환경브랜드" {
		t.Errorf("brand = %s, want the env value", cfg.Tracker.BrandLabel)
	}
	if !cfg.Scraper.Enabled {
		t.Error("scraper should be enabled by the file")
	}
	if d := cfg.Scraper.IntervalDuration(); d != 30*time.Minute {
		t.Errorf("interval = %v, want 30m", d)
	}
	// Unset fields keep their defaults.
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %s, want the default", cfg.Server.Addr)
	}
}

func TestIntervalDurationFallback(t *testing.T) {
	for _, value := range []string{"", "bogus", "-5m"} {
		cfg := ScraperConfig{Interval: value}
		if d := cfg.IntervalDuration(); d != time.Hour {
			t.Errorf("interval %q = %v, want the 1h fallback", value, d)
		}
	}
}
