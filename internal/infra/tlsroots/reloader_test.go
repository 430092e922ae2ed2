package tlsroots

import (
	"context"
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewCertReloader(t *testing.T) {
	certFile, keyFile := testPair(t)

	r, err := NewCertReloader(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}
	cert, err := r.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	if r.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", r.Reloads())
	}
}

func TestNewCertReloader_Invalid(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "bad.crt")
	keyFile := filepath.Join(dir, "bad.key")
	os.WriteFile(certFile, []byte("invalid"), 0644)
	os.WriteFile(keyFile, []byte("invalid"), 0600)

	if _, err := NewCertReloader(certFile, keyFile); err == nil {
		t.Error("NewCertReloader() expected error for invalid files")
	}
	if _, err := NewCertReloader("/nonexistent/a.crt", "/nonexistent/a.key"); err == nil {
		t.Error("NewCertReloader() expected error for missing files")
	}
}

func TestCertReloader_Handshake(t *testing.T) {
	certFile, keyFile := testPair(t)
	r, err := NewCertReloader(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", r.ServerConfig())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Write([]byte("+PONG\r\n"))
		conn.Close()
	}()

	clientCfg, err := ClientConfig(certFile, "localhost", false)
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	conn, err := tls.Dial("tcp", ln.Addr().String(), clientCfg)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 7)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf) != "+PONG\r\n" {
		t.Errorf("Read() = %q", buf)
	}
}

func TestCertReloader_ReloadOnChange(t *testing.T) {
	certFile, keyFile := testPair(t)
	r, err := NewCertReloader(certFile, keyFile, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}
	before, _ := r.GetCertificate(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	writeCertAndKey(t, certFile, keyFile, 2)

	deadline := time.Now().Add(3 * time.Second)
	for r.Reloads() < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if r.Reloads() < 2 {
		t.Fatal("certificate was not reloaded after the files changed")
	}
	after, _ := r.GetCertificate(nil)
	if after == before {
		t.Error("GetCertificate() still returns the old certificate")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
