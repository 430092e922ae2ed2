package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/blueis/internal/core/service"
	"github.com/yndnr/blueis/internal/infra/buildinfo"
	"github.com/yndnr/blueis/internal/infra/confloader"
	"github.com/yndnr/blueis/internal/infra/shutdown"
	"github.com/yndnr/blueis/internal/infra/tlsroots"
	"github.com/yndnr/blueis/internal/server/config"
	"github.com/yndnr/blueis/internal/server/httpserver"
	"github.com/yndnr/blueis/internal/server/localserver"
	"github.com/yndnr/blueis/internal/server/redisserver"
	"github.com/yndnr/blueis/internal/storage"
	"github.com/yndnr/blueis/internal/telemetry/logger"
	"github.com/yndnr/blueis/internal/telemetry/metric"
)

func run(c *cli.Context) error {
	flags, err := flagOverrides(c)
	if err != nil {
		return err
	}
	configFile := c.String("config")

	cfg, err := loadConfig(configFile, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	info := buildinfo.Get()
	log.Info("starting blueis-server", append([]any{
		"version", info.Version,
		"commit", info.Commit,
		"sqlite_driver", info.SQLiteDriver,
		"config", configFile,
	}, config.LogAttrs(cfg)...)...)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	engine, err := storage.Open(ctx, storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
		Synchronous: cfg.Storage.Synchronous,
		MaxReaders:  cfg.Storage.MaxReaders,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	coord := service.NewCoordinator()
	svc := service.NewListService(engine, storage.NewKeyLocks(cfg.Storage.LockStripes), coord, log)
	monitor := service.NewBroadcaster(cfg.Monitor.Buffer, log)
	metrics := newMetrics(engine, coord, monitor, log)

	redisCfg := &redisserver.Config{
		Address:      cfg.Server.Redis.Addr,
		TLSAddress:   cfg.Server.Redis.TLSAddr,
		ReadTimeout:  cfg.Server.Redis.ReadTimeout,
		WriteTimeout: cfg.Server.Redis.WriteTimeout,
		IdleTimeout:  cfg.Server.Redis.IdleTimeout,
		RateLimit:    cfg.Server.Redis.RateLimit,
	}
	var certs *tlsroots.CertReloader
	if cfg.Server.Redis.TLSAddr != "" {
		certs, err = tlsroots.NewCertReloader(cfg.Server.Redis.TLSCertFile, cfg.Server.Redis.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			engine.Close()
			return err
		}
		redisCfg.TLSConfig = certs.ServerConfig()
	}

	sh := shutdown.NewHandler(shutdown.DefaultTimeout, shutdown.WithLogger(log))
	// Hooks run in reverse order: clients first, the database last.
	sh.OnShutdown("storage", func(context.Context) error {
		log.Info("closing storage engine")
		return engine.Close()
	})

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.HTTP.Enabled {
		httpSrv := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Pinger:  engine,
			Metrics: metrics.Handler(),
			Logger:  log,
			Version: info.Version,
		}))
		ln, err := httpSrv.Listen()
		if err != nil {
			engine.Close()
			return fmt.Errorf("listen http: %w", err)
		}
		log.Info("HTTP server listening", "address", ln.Addr().String())
		sh.OnShutdown("http", func(ctx context.Context) error {
			log.Info("shutting down HTTP server")
			return httpSrv.Shutdown(ctx)
		})
		g.Go(func() error { return httpSrv.Serve(ln) })
	}

	redisSrv := redisserver.New(redisCfg, svc, monitor, metrics, log)
	if err := redisSrv.Start(gctx); err != nil {
		_ = sh.Shutdown()
		return fmt.Errorf("start redis server: %w", err)
	}
	sh.OnShutdown("redis", func(ctx context.Context) error {
		log.Info("shutting down redis server")
		return redisSrv.Shutdown(ctx)
	})
	if path := cfg.Server.Redis.UnixSocket; path != "" {
		uln, err := localserver.Listen(path, fs.FileMode(cfg.Server.Redis.UnixSocketPerm))
		if err != nil {
			_ = sh.Shutdown()
			return fmt.Errorf("listen unix socket: %w", err)
		}
		redisSrv.Serve(gctx, uln)
		log.Info("redis server listening", "socket", path)
	}

	if certs != nil {
		g.Go(func() error { return certs.Run(gctx) })
	}
	if configFile != "" {
		w, err := watchConfig(configFile, flags, log)
		if err != nil {
			log.Warn("configuration hot reload disabled", "error", err)
		} else {
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	g.Go(func() error {
		defer cancel()
		return sh.Wait(gctx)
	})

	log.Info("server started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from the file, environment and flags.
func loadConfig(configFile string, flags map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithFlags(flags)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig reloads the configuration file on change and applies the new
// log level. Other settings need a restart.
func watchConfig(configFile string, flags map[string]any, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		w.Stop()
		return nil, err
	}
	w.OnChange(func(path string) {
		cfg, err := loadConfig(configFile, flags)
		if err != nil {
			log.Error("configuration reload failed", "file", path, "error", err)
			return
		}
		level := strings.ToLower(cfg.Log.Level)
		if old := logger.GetLevel(); old != level {
			logger.SetLevel(level)
			log.Info("log level changed", "from", old, "to", level)
		}
	})
	return w, nil
}

// newMetrics builds the registry with gauges read from live components.
func newMetrics(engine *storage.Engine, coord *service.Coordinator, monitor *service.Broadcaster, log *slog.Logger) *metric.Registry {
	reg := metric.NewRegistry()
	reg.GaugeFunc("blocked_clients", "Number of clients blocked in BLPOP or BRPOP.", func() float64 {
		return float64(coord.Blocked())
	})
	reg.GaugeFunc("monitor_subscribers", "Number of clients in MONITOR mode.", func() float64 {
		return float64(monitor.Subscribers())
	})
	reg.CounterFunc("monitor_dropped_total", "MONITOR clients dropped for falling behind.", func() float64 {
		return float64(monitor.Dropped())
	})
	if err := reg.Register(metric.NewStorageCollector(engine, log)); err != nil {
		log.Warn("storage metrics disabled", "error", err)
	}
	return reg
}
