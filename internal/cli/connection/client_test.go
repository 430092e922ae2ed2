package connection

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/blueis/internal/server/redisserver"
)

// fakeServer answers each command with the reply registered for its name
// and records what it received.
func fakeServer(t *testing.T, replies map[string]string) (addr string, received chan []string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	received = make(chan []string, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				br := bufio.NewReader(conn)
				for {
					args, err := redisserver.ReadCommand(br)
					if err != nil {
						return
					}
					strs := make([]string, len(args))
					for i, a := range args {
						strs[i] = string(a)
					}
					received <- strs
					if reply, ok := replies[strings.ToUpper(strs[0])]; ok {
						conn.Write([]byte(reply))
					}
				}
			}()
		}
	}()
	return ln.Addr().String(), received
}

func TestClient_Do(t *testing.T) {
	addr, received := fakeServer(t, map[string]string{
		"PING":   "+PONG\r\n",
		"LRANGE": "*2\r\n$1\r\na\r\n$3\r\nb c\r\n",
	})

	c, err := Dial(context.Background(), Options{Addr: addr})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	r, err := c.Do(context.Background(), "PING")
	if err != nil || r.Type != ReplyStatus || r.Str != "PONG" {
		t.Fatalf("PING = %+v, %v", r, err)
	}

	r, err = c.Do(context.Background(), "lrange", "k", "0", "-1")
	if err != nil {
		t.Fatalf("LRANGE error = %v", err)
	}
	if len(r.Elems) != 2 || r.Elems[1].Str != "b c" {
		t.Errorf("LRANGE = %+v", r)
	}

	<-received
	if got := <-received; strings.Join(got, "|") != "lrange|k|0|-1" {
		t.Errorf("server received %q", got)
	}
}

func TestClient_DoTimeout(t *testing.T) {
	addr, _ := fakeServer(t, nil)

	c, err := Dial(context.Background(), Options{Addr: addr, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	var ne net.Error
	if _, err := c.Do(context.Background(), "LLEN", "k"); !errors.As(err, &ne) || !ne.Timeout() {
		t.Errorf("Do() error = %v, want timeout", err)
	}
}

func TestClient_BlockingUsesContext(t *testing.T) {
	addr, _ := fakeServer(t, nil)

	c, err := Dial(context.Background(), Options{Addr: addr, Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.Do(ctx, "BLPOP", "k", "0")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want context deadline", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("blocking command gave up after %v, the client timeout should not apply", elapsed)
	}
}

func TestDial_Errors(t *testing.T) {
	if _, err := Dial(context.Background(), Options{}); err == nil {
		t.Error("expected an error without address")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	if _, err := Dial(context.Background(), Options{Addr: addr, Timeout: time.Second}); err == nil {
		t.Error("expected an error dialing a closed port")
	}
}
