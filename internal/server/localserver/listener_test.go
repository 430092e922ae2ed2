package localserver

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// socketPath keeps paths short; sun_path is limited to about 100 bytes.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "bl")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestListen(t *testing.T) {
	path := socketPath(t)

	ln, err := Listen(path, 0o600)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if fi.Mode()&fs.ModeSocket == 0 {
		t.Errorf("mode = %v, want a socket", fi.Mode())
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	accepted := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			c.Close()
		}
		accepted <- err
	}()
	c, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	c.Close()
	if err := <-accepted; err != nil {
		t.Errorf("Accept() error = %v", err)
	}

	ln.Close()
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("socket file should be removed on close, stat err = %v", err)
	}
}

func TestListen_RemovesStaleSocket(t *testing.T) {
	path := socketPath(t)

	// Leave a socket file behind without a listener.
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	ln2, err := Listen(path, 0)
	if err != nil {
		t.Fatalf("Listen() over stale socket error = %v", err)
	}
	defer ln2.Close()

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := fi.Mode().Perm(); perm != DefaultPerm {
		t.Errorf("perm = %o, want %o", perm, DefaultPerm)
	}
}

func TestListen_InUse(t *testing.T) {
	path := socketPath(t)

	ln, err := Listen(path, 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	if _, err := Listen(path, 0); !errors.Is(err, ErrInUse) {
		t.Errorf("second Listen() error = %v, want ErrInUse", err)
	}
}

func TestListen_RefusesRegularFile(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Listen(path, 0)
	if err == nil || !strings.Contains(err.Error(), "not a socket") {
		t.Errorf("Listen() error = %v, want not a socket", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "data" {
		t.Error("regular file must not be touched")
	}
}
