package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds runtime settings for the TaskFlow client.
type Config struct {
	ServerURL      string
	SessionDB      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.SessionDB = "~/.taskflow/session.db"
	c.RequestTimeout = 10 * time.Second
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url must be an absolute http(s) URL, got %q", c.ServerURL)
	}
	if c.SessionDB == "" {
		return fmt.Errorf("session db path must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// LoadConfig builds a Config from defaults, environment, JSON and flags,
// later sources taking precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("TASKFLOW_SERVER_URL"); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookup("TASKFLOW_SESSION_DB"); ok && v != "" {
		cfg.SessionDB = v
	}
	if v, ok := lookup("TASKFLOW_REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKFLOW_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
