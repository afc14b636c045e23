package config

import (
	"flag"

	"github.com/dmitrijs2005/taskflow/internal/flagx"
)

func parseFlags(cfg *Config, args []string) error {
	// Filter args to include only those handled here.
	args = flagx.FilterArgs(args, []string{"-u", "-s", "-t"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "u", cfg.ServerURL, "TaskFlow API base URL")
	fs.StringVar(&cfg.SessionDB, "s", cfg.SessionDB, "session database path")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")

	return fs.Parse(args)
}
