// Package command provides the blueis-cli command definitions.
//
// It uses urfave/cli/v2. Without a subcommand the client starts the
// interactive REPL; exec runs a single command, monitor streams MONITOR
// output and ping measures round trips.
package command
