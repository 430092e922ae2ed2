// Package main provides the entry point for blueis-cli.
//
// blueis-cli talks to a blueis server over the redis protocol. Without a
// subcommand it starts an interactive shell.
//
// Usage:
//
//	blueis-cli [-s host:port] [-o raw|json|yaml]
//	blueis-cli exec LRANGE mylist 0 -1
//	blueis-cli monitor
//	blueis-cli ping -n 3
package main
