// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultRedisAddr    = "127.0.0.1:6379"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultHTTPAddr     = "127.0.0.1:9121"

	DefaultUnixSocketPerm = 0o660

	DefaultStoragePath = "blueis.sqlite3"
	DefaultBusyTimeout = 5 * time.Second
	DefaultSynchronous = "normal"
	DefaultLockStripes = 256
	DefaultMaxReaders  = 4

	DefaultMonitorBuffer = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:         DefaultRedisAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,

				UnixSocketPerm: DefaultUnixSocketPerm,
			},
			HTTP: HTTPConfig{
				Enabled: true,
				Addr:    DefaultHTTPAddr,
			},
		},
		Storage: StorageSection{
			Path:        DefaultStoragePath,
			BusyTimeout: DefaultBusyTimeout,
			Synchronous: DefaultSynchronous,
			LockStripes: DefaultLockStripes,
			MaxReaders:  DefaultMaxReaders,
		},
		Monitor: MonitorSection{
			Buffer: DefaultMonitorBuffer,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
