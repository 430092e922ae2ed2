package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yndnr/blueis/internal/core/domain"
)

// SchemaVersion is the value of the version row this release reads and writes.
const SchemaVersion = "1"

// Default configuration values.
const (
	DefaultPath        = "blueis.sqlite3"
	DefaultBusyTimeout = 5 * time.Second
	DefaultSynchronous = "normal"
	DefaultMaxReaders  = 4
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS blueis (id INTEGER PRIMARY KEY AUTOINCREMENT, key STRING, value BLOB)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS blueis_key_index ON blueis(key)`,
	`CREATE TABLE IF NOT EXISTS list_items (id INTEGER PRIMARY KEY AUTOINCREMENT, key BLOB, value BLOB, position INTEGER)`,
	`CREATE INDEX IF NOT EXISTS list_items_key ON list_items(key, position)`,
}

// Config configures the storage engine.
type Config struct {
	// Path is the SQLite database file. It is created if missing.
	Path string

	// BusyTimeout bounds how long a connection waits on a locked file.
	BusyTimeout time.Duration

	// Synchronous is the SQLite synchronous level: off, normal, full or extra.
	Synchronous string

	// MaxReaders caps the reader pool.
	MaxReaders int

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultConfig returns the default storage configuration for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		BusyTimeout: DefaultBusyTimeout,
		Synchronous: DefaultSynchronous,
		MaxReaders:  DefaultMaxReaders,
		Logger:      slog.Default(),
	}
}

// Engine is the SQLite-backed list storage engine.
//
// All mutations go through a single writer connection, one transaction each.
// Reads use a separate pool of read-only connections.
type Engine struct {
	cfg    Config
	writer *sql.DB
	reader *sql.DB
	logger *slog.Logger
	closed atomic.Bool
}

// Open opens (creating if needed) the database file and prepares the schema.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage: path is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.Synchronous == "" {
		cfg.Synchronous = DefaultSynchronous
	}
	if cfg.MaxReaders <= 0 {
		cfg.MaxReaders = DefaultMaxReaders
	}

	writer, err := sql.Open("sqlite", writerDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("storage: open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)
	writer.SetConnMaxIdleTime(0)

	if err := initSchema(ctx, writer); err != nil {
		writer.Close()
		return nil, err
	}

	reader, err := sql.Open("sqlite", readerDSN(cfg))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("storage: open reader: %w", err)
	}
	reader.SetMaxOpenConns(cfg.MaxReaders)
	reader.SetMaxIdleConns(cfg.MaxReaders)

	if err := reader.PingContext(ctx); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("storage: ping reader: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		writer: writer,
		reader: reader,
		logger: cfg.Logger,
	}

	cfg.Logger.Info("storage engine opened",
		"path", cfg.Path,
		"busy_timeout", cfg.BusyTimeout,
		"synchronous", cfg.Synchronous)

	return e, nil
}

func writerDSN(cfg Config) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(cfg.Synchronous)))
	q.Set("_txlock", "immediate")
	return cfg.Path + "?" + q.Encode()
}

func readerDSN(cfg Config) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "query_only(1)")
	return cfg.Path + "?" + q.Encode()
}

// initSchema creates missing tables and checks the schema version row.
func initSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin schema: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage: create schema: %w", err)
		}
	}

	var version []byte
	err = tx.QueryRowContext(ctx, `SELECT value FROM blueis WHERE key = 'version'`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blueis (key, value) VALUES ('version', ?)`, SchemaVersion); err != nil {
			return fmt.Errorf("storage: write schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("storage: read schema version: %w", err)
	case string(version) != SchemaVersion:
		return domain.ErrIncompatibleSchema.WithDetails(
			fmt.Sprintf("file has version %q, want %q", version, SchemaVersion))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (e *Engine) Path() string {
	return e.cfg.Path
}

// Ping verifies both pools can reach the database file.
func (e *Engine) Ping(ctx context.Context) error {
	if e.closed.Load() {
		return domain.ErrClosed
	}
	if err := e.writer.PingContext(ctx); err != nil {
		return e.wrap(err)
	}
	return e.wrap(e.reader.PingContext(ctx))
}

// Stats returns list, element and file size statistics.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := e.read(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			`SELECT COUNT(DISTINCT key), COUNT(*) FROM list_items`).Scan(&st.Lists, &st.Elements)
	})
	if err != nil {
		return nil, err
	}

	for _, p := range []string{e.cfg.Path, e.cfg.Path + "-wal"} {
		if fi, err := os.Stat(p); err == nil {
			st.FileSize += fi.Size()
		}
	}
	return st, nil
}

// Close closes both connection pools.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.logger.Info("shutting down storage engine")

	rerr := e.reader.Close()
	werr := e.writer.Close()
	if err := errors.Join(rerr, werr); err != nil {
		e.logger.Error("close storage failed", "error", err)
		return err
	}

	e.logger.Info("storage engine shutdown complete")
	return nil
}

// write runs fn in a transaction on the writer connection. Any error rolls
// the transaction back.
func (e *Engine) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if e.closed.Load() {
		return domain.ErrClosed
	}
	tx, err := e.writer.BeginTx(ctx, nil)
	if err != nil {
		return e.wrap(err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Error("rollback failed", "error", rbErr)
		}
		return e.wrap(err)
	}
	return e.wrap(tx.Commit())
}

// read runs fn in a read-only transaction so every statement sees one snapshot.
func (e *Engine) read(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if e.closed.Load() {
		return domain.ErrClosed
	}
	tx, err := e.reader.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return e.wrap(err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return e.wrap(err)
	}
	return e.wrap(tx.Commit())
}

// wrap converts driver errors into domain.ErrStorageIO. Domain and context
// errors pass through unchanged.
func (e *Engine) wrap(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsDomainError(err, "") ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.ErrStorageIO.WithCause(err)
}
