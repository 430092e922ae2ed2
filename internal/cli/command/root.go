package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/blueis/internal/cli/config"
	"github.com/yndnr/blueis/internal/cli/connection"
	"github.com/yndnr/blueis/internal/cli/output"
	"github.com/yndnr/blueis/internal/infra/buildinfo"
	"github.com/yndnr/blueis/internal/infra/tlsroots"
)

// ErrReplyError is returned after an error reply has been printed, so the
// process exits non-zero without printing it twice.
var ErrReplyError = errors.New("server replied with an error")

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                   "blueis-cli",
		Usage:                  "command-line client for blueis",
		Version:                buildinfo.String(),
		Flags:                  globalFlags(),
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			ExecCommand(),
			MonitorCommand(),
			PingCommand(),
			ReplCommand(),
		},
		Action: runREPL,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address (host:port)",
			EnvVars: []string{"BLUEIS_SERVER"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "connection profile from the config file",
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"BLUEIS_CLI_CONFIG"},
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "connect with TLS",
		},
		&cli.StringFlag{
			Name:  "cacert",
			Usage: "CA certificate file trusted for TLS",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: raw, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "dial and reply timeout",
		},
	}
}

// Settings is the resolved connection and output configuration.
type Settings struct {
	Server      string
	TLS         bool
	CAFile      string
	ServerName  string
	Insecure    bool
	Output      output.Format
	Timeout     time.Duration
	HistoryFile string
}

// ResolveSettings merges the config file, the selected profile and flags.
func ResolveSettings(c *cli.Context) (*Settings, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	conn, err := cfg.Connection(c.String("profile"))
	if err != nil {
		return nil, err
	}

	s := &Settings{
		Server:      conn.Server,
		TLS:         conn.TLS,
		CAFile:      conn.CAFile,
		ServerName:  conn.ServerName,
		Insecure:    conn.Insecure,
		Timeout:     cfg.Timeout,
		HistoryFile: cfg.HistoryFile,
	}
	if c.IsSet("server") {
		s.Server = c.String("server")
	}
	if c.IsSet("tls") {
		s.TLS = c.Bool("tls")
	}
	if c.IsSet("cacert") {
		s.CAFile = c.String("cacert")
		s.TLS = true
	}
	if c.IsSet("insecure") {
		s.Insecure = c.Bool("insecure")
	}
	if c.IsSet("timeout") {
		s.Timeout = c.Duration("timeout")
	}

	format := cfg.DefaultOutput
	if c.IsSet("output") {
		format = c.String("output")
	}
	if s.Output, err = output.ParseFormat(format); err != nil {
		return nil, err
	}
	return s, nil
}

// Dial connects with the resolved settings.
func (s *Settings) Dial(ctx context.Context) (*connection.Client, error) {
	opts := connection.Options{Addr: s.Server, Timeout: s.Timeout}
	if s.TLS {
		serverName := s.ServerName
		if serverName == "" {
			if host, _, err := net.SplitHostPort(s.Server); err == nil {
				serverName = host
			}
		}
		tlsCfg, err := tlsroots.ClientConfig(s.CAFile, serverName, s.Insecure)
		if err != nil {
			return nil, err
		}
		opts.TLSConfig = tlsCfg
	}

	client, err := connection.Dial(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.Server, err)
	}
	return client, nil
}

// connect resolves settings and dials.
func connect(c *cli.Context) (*Settings, *connection.Client, error) {
	s, err := ResolveSettings(c)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.Dial(c.Context)
	if err != nil {
		return nil, nil, err
	}
	return s, client, nil
}
