// Package config defines the server configuration structure.
package config

// LogAttrs returns the settings worth logging at startup as slog key/value
// pairs. TLS key material paths are reduced to whether they are set.
func LogAttrs(cfg *ServerConfig) []any {
	return []any{
		"redis_addr", cfg.Server.Redis.Addr,
		"redis_tls_addr", cfg.Server.Redis.TLSAddr,
		"redis_tls_key_set", cfg.Server.Redis.TLSKeyFile != "",
		"redis_unix_socket", cfg.Server.Redis.UnixSocket,
		"idle_timeout", cfg.Server.Redis.IdleTimeout,
		"rate_limit", cfg.Server.Redis.RateLimit,
		"http_enabled", cfg.Server.HTTP.Enabled,
		"http_addr", cfg.Server.HTTP.Addr,
		"storage_path", cfg.Storage.Path,
		"synchronous", cfg.Storage.Synchronous,
		"monitor_buffer", cfg.Monitor.Buffer,
		"log_level", cfg.Log.Level,
	}
}
