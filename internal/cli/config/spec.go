package config

import "time"

// CLIConfig is the configuration for blueis-cli.
type CLIConfig struct {
	DefaultServer string        `yaml:"default_server"`
	DefaultOutput string        `yaml:"default_output"` // raw, json, yaml
	Timeout       time.Duration `yaml:"timeout"`
	HistoryFile   string        `yaml:"history_file"`

	// Connections are named connection profiles.
	Connections map[string]ConnectionConfig `yaml:"connections"`

	// CurrentConnection is the profile used when none is named.
	CurrentConnection string `yaml:"current_connection"`
}

// ConnectionConfig stores saved connection details.
type ConnectionConfig struct {
	Server     string `yaml:"server"`
	TLS        bool   `yaml:"tls"`
	CAFile     string `yaml:"ca_file,omitempty"`
	ServerName string `yaml:"server_name,omitempty"`
	Insecure   bool   `yaml:"insecure,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "127.0.0.1:6379",
		DefaultOutput: "raw",
		Timeout:       10 * time.Second,
		Connections:   make(map[string]ConnectionConfig),
	}
}
