package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

// PingCommand checks connectivity and round-trip latency.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Send PING and report the round-trip time",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "number of pings",
				Value:   1,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "pause between pings",
				Value: time.Second,
			},
		},
		Action: pingCommand,
	}
}

func pingCommand(c *cli.Context) error {
	_, client, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	count := c.Int("count")
	for i := 0; i < count; i++ {
		if i > 0 {
			select {
			case <-time.After(c.Duration("interval")):
			case <-c.Context.Done():
				return nil
			}
		}

		start := time.Now()
		reply, err := client.Do(c.Context, "PING")
		if err != nil {
			return err
		}
		if err := reply.Err(); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s from %s: time=%s\n", reply.Str, client.Addr(), time.Since(start).Round(time.Microsecond))
	}
	return nil
}
