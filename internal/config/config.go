// Package config loads service settings from a YAML file, a .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr              string        `yaml:"addr"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Export struct {
		Dir    string `yaml:"dir"`
		Atomic bool   `yaml:"atomic"`
	} `yaml:"export"`

	Auth struct {
		Mode       string `yaml:"mode"` // dev, hmac
		HMACSecret string `yaml:"hmac_secret"`
	} `yaml:"auth"`

	Rate struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate"`

	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`

	Webhook struct {
		URL         string `yaml:"url"`
		Secret      string `yaml:"secret"`
		MaxAttempts int    `yaml:"max_attempts"`
	} `yaml:"webhook"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadHeaderTimeout = 5 * time.Second
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Export.Dir = "exports"
	cfg.Auth.Mode = "dev"
	cfg.Rate.RPS = 20
	cfg.Rate.Burst = 40
	cfg.Webhook.MaxAttempts = 10
	cfg.Log.Level = "info"
	return cfg
}

// Load reads path (skipped when empty), then .env, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		c.Auth.Mode = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("AUTH_HMAC_SECRET"); v != "" {
		c.Auth.HMACSecret = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RATE_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_RPS: %w", err)
		}
		c.Rate.RPS = f
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_BURST: %w", err)
		}
		c.Rate.Burst = n
	}
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEBHOOK_MAX_ATTEMPTS: %w", err)
		}
		c.Webhook.MaxAttempts = n
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case "dev":
	case "hmac":
		if c.Auth.HMACSecret == "" {
			return errors.New("auth mode hmac requires an hmac secret")
		}
	default:
		return fmt.Errorf("invalid auth mode: %s", c.Auth.Mode)
	}
	if c.Export.Dir == "" {
		return errors.New("export dir must be set")
	}
	if c.Rate.RPS < 0 || c.Rate.Burst < 0 {
		return errors.New("rate limits must be >= 0")
	}
	if c.Webhook.MaxAttempts <= 0 {
		return errors.New("webhook max attempts must be > 0")
	}
	return nil
}
