// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for blueis-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Monitor MonitorSection `koanf:"monitor"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	HTTP  HTTPConfig  `koanf:"http"`
}

// RedisConfig configures the RESP protocol server.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// TLSAddr enables a second, TLS-only listener when set.
	TLSAddr     string `koanf:"tls_addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// UnixSocket additionally serves RESP on a Unix domain socket.
	UnixSocket     string `koanf:"unix_socket"`
	UnixSocketPerm uint32 `koanf:"unix_socket_perm"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout closes connections idle for this long; 0 disables it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the per-address command rate (commands/second); 0 disables it.
	RateLimit int `koanf:"rate_limit"`
}

// HTTPConfig configures the operations HTTP server.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// StorageSection configures the list storage engine.
type StorageSection struct {
	// Path is the SQLite database file.
	Path        string        `koanf:"path"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
	Synchronous string        `koanf:"synchronous"`
	LockStripes int           `koanf:"lock_stripes"`
	MaxReaders  int           `koanf:"max_readers"`
}

// MonitorSection configures MONITOR fan-out.
type MonitorSection struct {
	// Buffer is the per-subscriber queue length; a full queue drops the subscriber.
	Buffer int `koanf:"buffer"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
