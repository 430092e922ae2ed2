// Package config provides blueis-cli configuration (~/.blueis/cli.yaml).
//
// The file sets defaults for the output format and history file, and
// names connection profiles:
//
//	default_output: raw
//	current_connection: prod
//	connections:
//	  prod:
//	    server: lists.internal:6380
//	    tls: true
//	    ca_file: /etc/blueis/ca.pem
//
// Command-line flags and BLUEIS_* environment variables override it.
package config
