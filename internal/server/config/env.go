package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv loads dotenvPath (if it exists) into the process environment
// without overriding variables that are already set, then copies the known
// variables into config.
//
// Recognized variables:
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_URL, JWT_SECRET_KEY, ACCESS_TOKEN_TTL,
//	BCRYPT_COST, LOG_LEVEL, LOG_FORMAT, CORS_ALLOW_ORIGINS,
//	HIDE_FOREIGN_TASKS, ENVIRONMENT
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	return applyEnv(config, os.LookupEnv)
}

func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	// An explicitly empty GRPC_ADDR disables the gRPC endpoint.
	if v, ok := lookup("GRPC_ADDR"); ok {
		config.EndpointAddrGRPC = v
	}
	str("DATABASE_URL", &config.DatabaseDSN)
	str("JWT_SECRET_KEY", &config.SecretKey)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)
	str("CORS_ALLOW_ORIGINS", &config.CORSAllowOrigins)
	str("ENVIRONMENT", &config.Environment)

	if v, ok := lookup("ACCESS_TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
		}
		config.AccessTokenValidityDuration = d
	}

	if v, ok := lookup("BCRYPT_COST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		config.BcryptCost = n
	}

	if v, ok := lookup("HIDE_FOREIGN_TASKS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HIDE_FOREIGN_TASKS: %w", err)
		}
		config.HideForeignTasks = b
	}

	return nil
}
