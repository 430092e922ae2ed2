// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/blueis/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyMonitor(&cfg.Monitor),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error

	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		errs = append(errs, err)
	}
	if cfg.Redis.TLSAddr != "" {
		if err := verifyAddr("server.redis.tls_addr", cfg.Redis.TLSAddr); err != nil {
			errs = append(errs, err)
		}
		if cfg.Redis.TLSCertFile == "" || cfg.Redis.TLSKeyFile == "" {
			errs = append(errs, errors.New("server.redis.tls_addr requires tls_cert_file and tls_key_file"))
		}
		for _, f := range []string{cfg.Redis.TLSCertFile, cfg.Redis.TLSKeyFile} {
			if f == "" {
				continue
			}
			if _, err := os.Stat(f); err != nil {
				errs = append(errs, fmt.Errorf("server.redis tls file: %w", err))
			}
		}
	}
	if cfg.Redis.UnixSocket != "" && (cfg.Redis.UnixSocketPerm == 0 || cfg.Redis.UnixSocketPerm > 0o777) {
		errs = append(errs, fmt.Errorf("server.redis.unix_socket_perm %o is not a valid file mode", cfg.Redis.UnixSocketPerm))
	}
	if cfg.Redis.ReadTimeout < 0 || cfg.Redis.WriteTimeout < 0 || cfg.Redis.IdleTimeout < 0 {
		errs = append(errs, errors.New("server.redis timeouts must not be negative"))
	}
	if cfg.Redis.RateLimit < 0 {
		errs = append(errs, errors.New("server.redis.rate_limit must not be negative"))
	}

	if cfg.HTTP.Enabled {
		if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
			errs = append(errs, err)
		}
		if cfg.HTTP.Addr == cfg.Redis.Addr {
			errs = append(errs, errors.New("server.http.addr conflicts with server.redis.addr"))
		}
	}
	return errors.Join(errs...)
}

func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.Path == "" {
		return errors.New("storage.path is required")
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.New("cannot create storage directory: " + err.Error())
	}

	switch strings.ToLower(cfg.Synchronous) {
	case "off", "normal", "full", "extra":
	default:
		return fmt.Errorf("storage.synchronous %q must be off, normal, full or extra", cfg.Synchronous)
	}

	if cfg.BusyTimeout <= 0 {
		return errors.New("storage.busy_timeout must be positive")
	}
	if cfg.LockStripes < 1 {
		return errors.New("storage.lock_stripes must be at least 1")
	}
	if cfg.MaxReaders < 1 {
		return errors.New("storage.max_readers must be at least 1")
	}
	return nil
}

func verifyMonitor(cfg *MonitorSection) error {
	if cfg.Buffer < 1 {
		return errors.New("monitor.buffer must be at least 1")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	}
	return fmt.Errorf("log.format %q must be json or text", cfg.Format)
}
