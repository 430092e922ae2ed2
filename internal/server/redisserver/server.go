package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/blueis/internal/core/service"
	"github.com/yndnr/blueis/internal/telemetry/logger"
	"github.com/yndnr/blueis/internal/telemetry/metric"
	"github.com/yndnr/blueis/pkg/cmap"
)

// Config holds the RESP server configuration.
type Config struct {
	// Address is the plaintext listen address.
	Address string
	// TLSAddress is the TLS listen address; empty disables TLS.
	TLSAddress string
	// TLSConfig is required when TLSAddress is set.
	TLSConfig *tls.Config
	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between commands. Zero keeps
	// them open, as blocked and MONITOR clients are legitimately quiet.
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per client
	// host. Zero disables rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server serves the RESP protocol.
type Server struct {
	cfg     *Config
	handler *CommandHandler
	monitor *service.Broadcaster
	metrics *metric.Registry
	logger  *slog.Logger
	clients *cmap.Map[string, *Conn]

	mu        sync.Mutex
	listeners []net.Listener
	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a new RESP server. metrics may be nil.
func New(cfg *Config, svc *service.ListService, monitor *service.Broadcaster, metrics *metric.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if monitor == nil {
		monitor = service.NewBroadcaster(0, logger)
	}

	s := &Server{
		cfg:     cfg,
		monitor: monitor,
		metrics: metrics,
		logger:  logger,
		clients: cmap.New[string, *Conn](),
	}
	s.handler = NewCommandHandler(svc, monitor, service.NewRateLimiterRegistry(cfg.RateLimit), metrics, logger)
	return s
}

// Start binds the configured listeners and serves them in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.Serve(ctx, ln)
	s.logger.Info("redis server listening", "address", ln.Addr().String())

	if s.cfg.TLSAddress == "" {
		return nil
	}
	if s.cfg.TLSConfig == nil {
		_ = s.Shutdown(context.Background())
		return errors.New("redisserver: TLS address set without TLS config")
	}
	tln, err := tls.Listen("tcp", s.cfg.TLSAddress, s.cfg.TLSConfig)
	if err != nil {
		_ = s.Shutdown(context.Background())
		return err
	}
	s.Serve(ctx, tln)
	s.logger.Info("redis TLS server listening", "address", tln.Addr().String())
	return nil
}

// Serve accepts connections on ln in the background until Shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) {
	s.mu.Lock()
	if s.cancel == nil {
		s.ctx, s.cancel = context.WithCancel(ctx)
		if s.handler.limiter.Enabled() {
			s.wg.Add(1)
			go s.pruneLimiters(s.ctx)
		}
	}
	ctx = s.ctx
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("redis accept loop failed", "address", ln.Addr().String(), "error", err)
		}
	}()
}

// Addrs returns the bound listener addresses.
func (s *Server) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]net.Addr, 0, len(s.listeners))
	for _, ln := range s.listeners {
		out = append(out, ln.Addr())
	}
	return out
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	return s.clients.Count()
}

// Shutdown stops accepting, disconnects every client (waking blocked ones)
// and waits for connection goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	var errs []error
	for _, ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.clients.Range(func(_ string, c *Conn) bool {
		_ = c.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return errors.Join(errs...)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, newConn(nc, s.cfg.WriteTimeout))
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	s.clients.Set(c.ID, c)
	s.metrics.ConnOpened()
	s.logger.Debug("client connected", "client_id", c.ID, "remote", c.Addr())
	defer func() {
		s.clients.Delete(c.ID)
		s.metrics.ConnClosed()
		_ = c.Close()
		s.logger.Debug("client disconnected", "client_id", c.ID, "remote", c.Addr())
	}()

	// The server may have shut down while this goroutine was starting.
	if ctx.Err() != nil {
		return
	}
	ctx = logger.WithClientID(logger.WithLogger(ctx, s.logger), c.ID)

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}

	for {
		var idle time.Time
		if s.cfg.IdleTimeout > 0 {
			idle = time.Now().Add(s.cfg.IdleTimeout)
		}
		if err := c.netConn.SetReadDeadline(idle); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadError(c, err)
			return
		}

		// After the first byte, bound the rest of the command.
		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		args, err := ReadCommand(c.br)
		if err != nil {
			if errors.Is(err, io.EOF) || isTimeout(err) {
				s.logReadError(c, err)
				return
			}
			if errors.Is(err, ErrLimitExceeded) {
				s.logger.Warn("protocol limit exceeded", "client_id", c.ID, "remote", c.Addr(), "error", err)
				_ = WriteError(c.bw, "ERR protocol limit exceeded")
			} else {
				_ = WriteError(c.bw, "ERR Protocol error: "+err.Error())
			}
			_ = c.flush()
			return
		}
		if len(args) == 0 {
			continue
		}

		c.refreshWriteDeadline()
		act := s.handler.Handle(ctx, c, args)
		if err := c.flush(); err != nil {
			return
		}

		switch act {
		case actionClose:
			return
		case actionMonitor:
			s.runMonitor(ctx, c)
			return
		}
	}
}

// runMonitor streams command records to c until it disconnects, sends
// QUIT, falls too far behind, or the server stops.
func (s *Server) runMonitor(ctx context.Context, c *Conn) {
	c.monitoring.Store(true)
	sub := s.monitor.Subscribe(c.ID, c.Addr())
	defer s.monitor.Unsubscribe(sub)

	s.logger.Debug("client entered monitor mode", "client_id", c.ID, "subscription", sub.ID)

	// The reader only watches for QUIT or a hang-up; the loop below is the
	// sole writer.
	quit := make(chan struct{})
	go func() {
		defer close(quit)
		_ = c.netConn.SetReadDeadline(time.Time{})
		for {
			args, err := ReadCommand(c.br)
			if err != nil {
				return
			}
			if len(args) > 0 && normalizeCommandName(args[0]) == "QUIT" {
				return
			}
		}
	}()

	for {
		select {
		case rec, ok := <-sub.C():
			if !ok {
				s.logger.Warn("monitor client dropped", "client_id", c.ID)
				return
			}
			_ = WriteSimpleString(c.bw, rec.Format())
			// Drain what is already queued before flushing.
			for len(sub.C()) > 0 && c.bw.Buffered() < 32<<10 {
				rec, ok = <-sub.C()
				if !ok {
					break
				}
				_ = WriteSimpleString(c.bw, rec.Format())
			}
			if err := c.flush(); err != nil {
				return
			}
		case <-quit:
			_ = WriteSimpleString(c.bw, "OK")
			_ = c.flush()
			return
		case <-ctx.Done():
			return
		}
	}
}

// pruneLimiters forgets rate limiters of hosts that went quiet.
func (s *Server) pruneLimiters(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.handler.limiter.Prune(); n > 0 {
				s.logger.Debug("pruned idle rate limiters", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) logReadError(c *Conn, err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case isTimeout(err):
		s.logger.Debug("connection timed out", "client_id", c.ID, "remote", c.Addr())
	default:
		s.logger.Debug("connection read error", "client_id", c.ID, "remote", c.Addr(), "error", err)
	}
}
