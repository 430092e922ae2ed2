package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/blueis/internal/cli/connection"
	"github.com/yndnr/blueis/internal/cli/output"
	"github.com/yndnr/blueis/internal/cli/repl"
	"github.com/yndnr/blueis/internal/server/redisserver"
)

// ReplCommand starts the interactive mode explicitly.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Start the interactive shell (the default)",
		Action: runREPL,
	}
}

func runREPL(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q, use exec to run server commands", c.Args().First())
	}

	s, client, err := connect(c)
	if err != nil {
		return err
	}
	sess := &session{settings: s, client: client, out: c.App.Writer}
	defer func() { sess.client.Close() }()

	historyFile := s.HistoryFile
	if historyFile == "" {
		historyFile = repl.DefaultHistoryFile()
	}

	r := repl.New(repl.Config{
		Prompt:      s.Server + "> ",
		Commands:    redisserver.CommandNames(),
		HistoryFile: historyFile,
		Input:       c.App.Reader,
		Output:      c.App.Writer,
	}, sess.exec)
	return r.Run(c.Context)
}

// session runs REPL lines over one connection, redialing once if the
// server closed it.
type session struct {
	settings *Settings
	client   *connection.Client
	out      io.Writer
}

func (s *session) exec(ctx context.Context, args []string) error {
	reply, err := s.client.Do(ctx, args...)
	if err != nil && isConnLost(err) {
		s.client.Close()
		if s.client, err = s.settings.Dial(ctx); err != nil {
			return err
		}
		reply, err = s.client.Do(ctx, args...)
	}
	if err != nil {
		return err
	}
	return output.NewFormatter(s.settings.Output).Format(s.out, reply)
}

func isConnLost(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF)
}
