package connection

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/yndnr/blueis/internal/server/redisserver"
)

// DefaultTimeout bounds dialing and each request/reply round trip.
const DefaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	// Addr is the server host:port.
	Addr string
	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config
	// Timeout bounds dialing and non-blocking commands. Zero uses
	// DefaultTimeout.
	Timeout time.Duration
}

// Client is a connection to a blueis server. It is not safe for
// concurrent use.
type Client struct {
	opts Options
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer
}

// Dial connects to the server.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("connection: address is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	var (
		conn net.Conn
		err  error
	)
	dialer := &net.Dialer{Timeout: opts.Timeout}
	if opts.TLSConfig != nil {
		td := &tls.Dialer{NetDialer: dialer, Config: opts.TLSConfig}
		conn, err = td.DialContext(ctx, "tcp", opts.Addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", opts.Addr)
	}
	if err != nil {
		return nil, err
	}

	return &Client{
		opts: opts,
		conn: conn,
		br:   bufio.NewReader(conn),
		bw:   bufio.NewWriter(conn),
	}, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.opts.Addr
}

// Do sends a command and reads its reply. Error replies are returned as a
// Reply, not as an error. Blocking commands (BLPOP, BRPOP) wait for as
// long as ctx allows; others are bounded by the client timeout.
func (c *Client) Do(ctx context.Context, args ...string) (Reply, error) {
	if err := c.Send(args...); err != nil {
		return Reply{}, err
	}

	deadline := time.Now().Add(c.opts.Timeout)
	if len(args) > 0 && isBlocking(args[0]) {
		deadline = time.Time{}
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return Reply{}, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	r, err := ReadReply(c.br)
	if err != nil && ctx.Err() != nil {
		return Reply{}, ctx.Err()
	}
	return r, err
}

// Send writes one command without waiting for the reply.
func (c *Client) Send(args ...string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.Timeout)); err != nil {
		return err
	}
	items := make([][]byte, len(args))
	for i, a := range args {
		items[i] = []byte(a)
	}
	if err := redisserver.WriteBulkArray(c.bw, items); err != nil {
		return err
	}
	return c.bw.Flush()
}

// Receive reads the next reply with no deadline, for streams such as
// MONITOR. Closing the client unblocks it.
func (c *Client) Receive() (Reply, error) {
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return Reply{}, err
	}
	return ReadReply(c.br)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func isBlocking(name string) bool {
	return strings.EqualFold(name, "BLPOP") || strings.EqualFold(name, "BRPOP")
}
