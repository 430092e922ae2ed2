package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"
)

// parseFlags runs the app with a capturing action and returns the overrides.
func parseFlags(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	var (
		got    map[string]any
		gotErr error
	)
	app := newApp()
	app.Action = func(c *cli.Context) error {
		got, gotErr = flagOverrides(c)
		return nil
	}
	if err := app.Run(append([]string{"blueis-server"}, args...)); err != nil {
		t.Fatalf("app.Run() error = %v", err)
	}
	return got, gotErr
}

func TestFlagOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]any
	}{
		{
			name: "nothing set",
			args: nil,
			want: map[string]any{},
		},
		{
			name: "positional address and database",
			args: []string{"0.0.0.0:7777", "/tmp/lists.sqlite3"},
			want: map[string]any{
				"server.redis.addr": "0.0.0.0:7777",
				"storage.path":      "/tmp/lists.sqlite3",
			},
		},
		{
			name: "flags",
			args: []string{"--addr", ":6380", "--db", "x.db", "--no-http", "--idle-timeout", "5m", "--rate-limit", "100", "--log-level", "debug"},
			want: map[string]any{
				"server.redis.addr":         ":6380",
				"storage.path":              "x.db",
				"server.http.enabled":       false,
				"server.redis.idle_timeout": 5 * time.Minute,
				"server.redis.rate_limit":   100,
				"log.level":                 "debug",
			},
		},
		{
			name: "unix socket",
			args: []string{"--unix-socket", "/run/blueis.sock"},
			want: map[string]any{
				"server.redis.unix_socket": "/run/blueis.sock",
			},
		},
		{
			name: "positional wins over flag",
			args: []string{"--addr", ":6380", ":6381"},
			want: map[string]any{
				"server.redis.addr": ":6381",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(t, tt.args...)
			if err != nil {
				t.Fatalf("flagOverrides() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("flagOverrides() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestFlagOverrides_TooManyArgs(t *testing.T) {
	if _, err := parseFlags(t, "a:1", "b.db", "extra"); err == nil {
		t.Error("expected an error for a third positional argument")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blueis.yaml")
	yaml := "server:\n  redis:\n    addr: 127.0.0.1:7000\nstorage:\n  path: from-file.sqlite3\nlog:\n  level: warn\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, map[string]any{"storage.path": "from-flag.sqlite3"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.Redis.Addr != "127.0.0.1:7000" {
		t.Errorf("redis addr = %q", cfg.Server.Redis.Addr)
	}
	if cfg.Storage.Path != "from-flag.sqlite3" {
		t.Errorf("storage path = %q, flags should win", cfg.Storage.Path)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Monitor.Buffer == 0 {
		t.Error("defaults should survive for unset keys")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := loadConfig("", map[string]any{"log.level": "loud"}); err == nil {
		t.Error("expected a validation error")
	}
}
