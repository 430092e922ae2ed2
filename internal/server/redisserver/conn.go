package redisserver

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// aLongTimeAgo is a deadline in the past, used to interrupt a pending read.
var aLongTimeAgo = time.Unix(1, 0)

// Conn represents a single client connection.
type Conn struct {
	ID        string
	CreatedAt time.Time

	netConn      net.Conn
	br           *bufio.Reader
	bw           *bufio.Writer
	addr         string
	host         string
	writeTimeout time.Duration

	monitoring atomic.Bool
	closed     atomic.Bool
}

func newConn(c net.Conn, writeTimeout time.Duration) *Conn {
	addr := c.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if c.LocalAddr().Network() == "unix" {
		addr = "unix:" + c.LocalAddr().String()
		host = addr
	}
	return &Conn{
		ID:           ulid.Make().String(),
		CreatedAt:    time.Now(),
		netConn:      c,
		br:           bufio.NewReader(c),
		bw:           bufio.NewWriter(c),
		addr:         addr,
		host:         host,
		writeTimeout: writeTimeout,
	}
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// Addr returns the remote address as host:port.
func (c *Conn) Addr() string {
	return c.addr
}

// Host returns the remote host without the port.
func (c *Conn) Host() string {
	return c.host
}

// Monitoring reports whether the connection is in MONITOR mode.
func (c *Conn) Monitoring() bool {
	return c.monitoring.Load()
}

func (c *Conn) refreshWriteDeadline() {
	if c.writeTimeout > 0 {
		_ = c.netConn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
}

func (c *Conn) flush() error {
	c.refreshWriteDeadline()
	return c.bw.Flush()
}

// watchClose calls cancel if the peer hangs up while the connection is
// parked in a blocking command. Pipelined commands stay buffered for the
// connection loop; each peek looks one byte past them. The watch gives up
// without cancelling only once the read buffer is full. The returned stop
// function interrupts the watch and waits for it to end.
func (c *Conn) watchClose(cancel context.CancelFunc) (stop func()) {
	_ = c.netConn.SetReadDeadline(time.Time{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			n := c.br.Buffered() + 1
			if n > c.br.Size() {
				return
			}
			_, err := c.br.Peek(n)
			switch {
			case err == nil:
				continue
			case isTimeout(err), errors.Is(err, bufio.ErrBufferFull):
				return
			default:
				cancel()
				return
			}
		}
	}()
	return func() {
		_ = c.netConn.SetReadDeadline(aLongTimeAgo)
		<-done
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
