// Package config handles configuration for the TaskFlow server: defaults,
// .env and environment variables, an optional JSON file, then flags. Later
// sources override earlier ones.
package config

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultSecretKey is only acceptable outside production.
const DefaultSecretKey = "dev-secret-key-change-in-production"

// Config holds runtime settings for the TaskFlow server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the REST API.
//   - EndpointAddrGRPC: bind address of the gRPC health endpoint ("" disables it).
//   - DatabaseDSN: postgres://... (pgx) or sqlite://path (modernc).
//   - SecretKey: HMAC secret for signing JWTs (HS256).
//   - AccessTokenValidityDuration: lifetime of issued access tokens.
//   - BcryptCost: work factor for password hashes.
//   - HideForeignTasks: answer 404 instead of 403 for tasks owned by someone else.
type Config struct {
	EndpointAddrHTTP            string
	EndpointAddrGRPC            string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	BcryptCost                  int
	LogLevel                    string
	LogFormat                   string
	CORSAllowOrigins            string
	HideForeignTasks            bool
	Environment                 string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "sqlite://taskflow.db"
	c.SecretKey = DefaultSecretKey
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.CORSAllowOrigins = "*"
	c.HideForeignTasks = false
	c.Environment = "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.EndpointAddrHTTP == "" {
		return errors.New("http endpoint address is required")
	}
	if c.DatabaseDSN == "" {
		return errors.New("database dsn is required")
	}
	if c.SecretKey == "" {
		return errors.New("secret key is required")
	}
	if c.IsProduction() && c.SecretKey == DefaultSecretKey {
		return errors.New("default secret key must not be used in production")
	}
	if c.AccessTokenValidityDuration <= 0 {
		return errors.New("access token validity must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.New("bcrypt cost out of range")
	}
	return nil
}

// LoadConfig builds a Config from defaults, the .env file and environment,
// the JSON file named by -c/-config, and finally the command-line flags.
// args are the program arguments without the binary name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, ".env"); err != nil {
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
