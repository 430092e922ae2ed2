package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/blueis/internal/infra/buildinfo"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "blueis-server",
		Usage:     "disk-backed redis-compatible list server",
		UsageText: "blueis-server [flags] [host:port [database.sqlite3]]",
		Version:   buildinfo.String(),
		Flags:     serverFlags(),
		Action:    run,
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to the YAML configuration file",
			EnvVars: []string{"BLUEIS_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "redis protocol listen address",
		},
		&cli.StringFlag{
			Name:  "tls-addr",
			Usage: "TLS redis protocol listen address",
		},
		&cli.StringFlag{
			Name:  "tls-cert",
			Usage: "TLS certificate file",
		},
		&cli.StringFlag{
			Name:  "tls-key",
			Usage: "TLS private key file",
		},
		&cli.StringFlag{
			Name:  "unix-socket",
			Usage: "also serve on this Unix domain socket",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "SQLite database file",
		},
		&cli.StringFlag{
			Name:  "http-addr",
			Usage: "operations HTTP listen address",
		},
		&cli.BoolFlag{
			Name:  "no-http",
			Usage: "disable the operations HTTP server",
		},
		&cli.DurationFlag{
			Name:  "idle-timeout",
			Usage: "close connections idle for this long (0 disables)",
		},
		&cli.IntFlag{
			Name:  "rate-limit",
			Usage: "commands per second per client host (0 disables)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "log format: json, text",
		},
	}
}

// flagOverrides maps explicitly set flags and positional arguments to
// configuration keys.
func flagOverrides(c *cli.Context) (map[string]any, error) {
	if c.NArg() > 2 {
		return nil, fmt.Errorf("expected at most 2 arguments, got %d", c.NArg())
	}

	values := make(map[string]any)
	set := func(flag, key string, v any) {
		if c.IsSet(flag) {
			values[key] = v
		}
	}
	set("addr", "server.redis.addr", c.String("addr"))
	set("tls-addr", "server.redis.tls_addr", c.String("tls-addr"))
	set("tls-cert", "server.redis.tls_cert_file", c.String("tls-cert"))
	set("tls-key", "server.redis.tls_key_file", c.String("tls-key"))
	set("unix-socket", "server.redis.unix_socket", c.String("unix-socket"))
	set("db", "storage.path", c.String("db"))
	set("http-addr", "server.http.addr", c.String("http-addr"))
	set("idle-timeout", "server.redis.idle_timeout", c.Duration("idle-timeout"))
	set("rate-limit", "server.redis.rate_limit", c.Int("rate-limit"))
	set("log-level", "log.level", c.String("log-level"))
	set("log-format", "log.format", c.String("log-format"))
	if c.Bool("no-http") {
		values["server.http.enabled"] = false
	}

	if addr := c.Args().Get(0); addr != "" {
		values["server.redis.addr"] = addr
	}
	if path := c.Args().Get(1); path != "" {
		values["storage.path"] = path
	}
	return values, nil
}
