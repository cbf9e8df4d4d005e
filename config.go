package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Chart struct {
		Backend    string        `yaml:"backend"`
		WindowDays int           `yaml:"window_days"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"chart"`

	Feed struct {
		AuthKey string        `yaml:"auth_key"`
		Timeout time.Duration `yaml:"timeout"`

		// Sources maps a sport to the producer URL serve pulls it from.
		Sources  map[string]string `yaml:"sources"`
		Interval time.Duration     `yaml:"interval"`
	} `yaml:"feed"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Database.Path = "./picks_dashboard.db"
	cfg.Chart.Backend = "echarts"
	cfg.Chart.WindowDays = 14
	cfg.Chart.CacheTTL = 5 * time.Minute
	cfg.Feed.Timeout = 15 * time.Second
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	return cfg
}

// loadConfig reads the YAML file at path on top of the defaults, then applies
// .env and environment overrides. A missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Chart.WindowDays <= 0 {
		return cfg, fmt.Errorf("chart.window_days must be positive, got %d", cfg.Chart.WindowDays)
	}
	for sport := range cfg.Feed.Sources {
		if sport == sportAll || !validSport(sport) {
			return cfg, fmt.Errorf("feed.sources: unknown sport %q", sport)
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PICKS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PICKS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Railway volume wins over a configured path
	if mountPath := os.Getenv("RAILWAY_VOLUME_MOUNT_PATH"); mountPath != "" {
		cfg.Database.Path = filepath.Join(mountPath, "picks_dashboard.db")
	}

	if v := os.Getenv("PICKS_CHART_BACKEND"); v != "" {
		cfg.Chart.Backend = v
	}
	if v := os.Getenv("PICKS_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PICKS_WINDOW_DAYS: %w", err)
		}
		cfg.Chart.WindowDays = n
	}
	if v := os.Getenv("PICKS_FEED_KEY"); v != "" {
		cfg.Feed.AuthKey = v
	}
	if v := os.Getenv("PICKS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}
