package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/blueis/internal/cli/output"
)

// ExecCommand runs one server command.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:            "exec",
		Aliases:         []string{"x"},
		Usage:           "Run one command and print its reply",
		ArgsUsage:       "COMMAND [ARG...]",
		SkipFlagParsing: true,
		Action:          execCommand,
	}
}

func execCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowSubcommandHelp(c)
	}

	s, client, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Do(c.Context, c.Args().Slice()...)
	if err != nil {
		return err
	}
	if err := output.NewFormatter(s.Output).Format(c.App.Writer, reply); err != nil {
		return err
	}
	if reply.Err() != nil {
		return ErrReplyError
	}
	return nil
}
