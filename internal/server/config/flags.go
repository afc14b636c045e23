package config

import (
	"flag"

	"github.com/dmitrijs2005/taskflow/internal/flagx"
)

// parseFlags populates config from command-line flags.
//
// Supported flags:
//
//	-a string    REST bind address (e.g. ":8080")
//	-g string    gRPC health bind address ("" disables)
//	-d string    database DSN
//	-s string    JWT HMAC secret key
//	-t duration  access token validity (e.g. "24h")
//	-b int       bcrypt cost
//	-l string    log level
//	-o string    comma-separated CORS origins
//	-f           hide tasks of other users behind 404
//	-e string    environment name
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args,
		[]string{"-a", "-g", "-d", "-s", "-t", "-b", "-l", "-o", "-e"},
		"-f")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "REST address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.CORSAllowOrigins, "o", config.CORSAllowOrigins, "CORS allowed origins")
	fs.BoolVar(&config.HideForeignTasks, "f", config.HideForeignTasks, "answer 404 for tasks of other users")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")

	return fs.Parse(args)
}
