package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "RANK_TRACKER_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	listenAddrEnv  = "HTTP_ADDR"
	brandLabelEnv  = "BRAND_LABEL"
	logLevelEnv    = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Scraper  ScraperConfig  `yaml:"scraper"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the storage DSN. postgres:// DSNs select the
// postgres driver; any other value is treated as a sqlite path.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// TrackerConfig holds the site and brand labels the parser keys on.
type TrackerConfig struct {
	SiteLabel  string `yaml:"siteLabel"`
	BrandLabel string `yaml:"brandLabel"`
}

// ScraperConfig enables the periodic best-page scrape.
type ScraperConfig struct {
	Enabled   bool         `yaml:"enabled"`
	Interval  string       `yaml:"interval"`
	RenderURL string       `yaml:"renderUrl"`
	Sites     []SiteConfig `yaml:"sites"`
}

// IntervalDuration resolves the interval string; invalid or empty values fall
// back to one hour.
func (s ScraperConfig) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// SiteConfig describes a single site with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	Categories []CategoryConfig  `yaml:"categories"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds one best-list page to crawl.
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(brandLabelEnv); v != "" {
		c.Tracker.BrandLabel = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Database.DSN != "" {
		base.Database = override.Database
	}
	if override.Server.Addr != "" {
		base.Server = override.Server
	}

	if override.Tracker.SiteLabel != "" {
		base.Tracker.SiteLabel = override.Tracker.SiteLabel
	}
	if override.Tracker.BrandLabel != "" {
		base.Tracker.BrandLabel = override.Tracker.BrandLabel
	}

	if override.Scraper.Enabled {
		base.Scraper.Enabled = true
	}
	if override.Scraper.Interval != "" {
		base.Scraper.Interval = override.Scraper.Interval
	}
	if override.Scraper.RenderURL != "" {
		base.Scraper.RenderURL = override.Scraper.RenderURL
	}
	if len(override.Scraper.Sites) > 0 {
		base.Scraper.Sites = override.Scraper.Sites
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: "rankings.db"},
		Server:   ServerConfig{Addr: ":8080"},
		Tracker: TrackerConfig{
			SiteLabel:  "W컨셉 베스트",
			BrandLabel: "하시에",
		},
		Scraper: ScraperConfig{
			Enabled:  false,
			Interval: "1h",
			Sites: []SiteConfig{
				{
					Name:    "wconcept-best",
					Scanner: "wconcept",
					Categories: []CategoryConfig{
						{Name: "아우터", URL: "https://www.wconcept.co.kr/Best?category=outer"},
					},
				},
			},
		},
	}
}
