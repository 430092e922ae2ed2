package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/blueis/internal/cli/output"
)

// MonitorCommand streams every command the server processes.
func MonitorCommand() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Stream commands processed by the server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "stop after this many records (0 streams until interrupted)",
			},
		},
		Action: monitorCommand,
	}
}

func monitorCommand(c *cli.Context) error {
	s, client, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Do(c.Context, "MONITOR")
	if err != nil {
		return err
	}
	if err := reply.Err(); err != nil {
		return err
	}

	// Receive has no deadline; closing the client ends it on interrupt.
	stop := context.AfterFunc(c.Context, func() { client.Close() })
	defer stop()

	formatter := output.NewFormatter(s.Output)
	limit := c.Int("count")
	for n := 0; limit == 0 || n < limit; n++ {
		rec, err := client.Receive()
		if err != nil {
			if c.Context.Err() != nil {
				return nil
			}
			return fmt.Errorf("monitor stream ended: %w", err)
		}
		if err := formatter.Format(c.App.Writer, rec); err != nil {
			return err
		}
	}
	return nil
}
