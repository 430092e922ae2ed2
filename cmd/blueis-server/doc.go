// Package main provides the entry point for blueis-server.
//
// blueis-server speaks the redis protocol for list commands and keeps every
// list in a SQLite file instead of memory.
//
// Usage:
//
//	blueis-server [flags] [host:port [database.sqlite3]]
//	blueis-server --config /etc/blueis/blueis.yaml
//	blueis-server --unix-socket /run/blueis.sock 127.0.0.1:6379 lists.sqlite3
//
// Configuration is read from the YAML file, then BLUEIS_* environment
// variables, then flags and positional arguments. Changing log.level in the
// file takes effect without a restart.
package main
