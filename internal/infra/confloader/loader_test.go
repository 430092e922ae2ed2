package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Redis struct {
			Addr        string        `koanf:"addr"`
			ReadTimeout time.Duration `koanf:"read_timeout"`
			RateLimit   int           `koanf:"rate_limit"`
		} `koanf:"redis"`
	} `koanf:"server"`
	Storage struct {
		Path string `koanf:"path"`
	} `koanf:"storage"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/blueis.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want TEST_", l.envPrefix)
	}
	if l.FilePath() != "/etc/blueis.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    addr: "0.0.0.0:6379"
    read_timeout: 10s
storage:
  path: /var/lib/blueis/data.sqlite3
`)

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Redis.Addr != "0.0.0.0:6379" {
		t.Errorf("Addr = %q", cfg.Server.Redis.Addr)
	}
	if cfg.Server.Redis.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want 10s", cfg.Server.Redis.ReadTimeout)
	}
	if cfg.Storage.Path != "/var/lib/blueis/data.sqlite3" {
		t.Errorf("Path = %q", cfg.Storage.Path)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	var cfg testConfig
	err := NewLoader(WithConfigFile("/nonexistent/blueis.yaml")).Load(&cfg)
	if err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoader_DefaultsSurvive(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	var cfg testConfig
	cfg.Server.Redis.Addr = "127.0.0.1:6379"
	cfg.Storage.Path = "default.sqlite3"

	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Server.Redis.Addr != "127.0.0.1:6379" || cfg.Storage.Path != "default.sqlite3" {
		t.Errorf("defaults overwritten: %+v", cfg)
	}
}

func TestLoader_LoadEnv_UnderscoreKeys(t *testing.T) {
	t.Setenv("BLUEIS_SERVER_REDIS_READ_TIMEOUT", "250ms")
	t.Setenv("BLUEIS_SERVER_REDIS_RATE_LIMIT", "40")
	t.Setenv("BLUEIS_LOG_LEVEL", "warn")

	var cfg testConfig
	if err := NewLoader().Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Redis.ReadTimeout != 250*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 250ms", cfg.Server.Redis.ReadTimeout)
	}
	if cfg.Server.Redis.RateLimit != 40 {
		t.Errorf("RateLimit = %d, want 40", cfg.Server.Redis.RateLimit)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_STORAGE_PATH", "/tmp/x.sqlite3")

	var cfg testConfig
	if err := NewLoader(WithEnvPrefix("MYAPP_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Path != "/tmp/x.sqlite3" {
		t.Errorf("Path = %q", cfg.Storage.Path)
	}
}

func TestLoader_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    addr: "file:1"
storage:
  path: file.sqlite3
log:
  level: error
`)
	t.Setenv("BLUEIS_SERVER_REDIS_ADDR", "env:2")
	t.Setenv("BLUEIS_STORAGE_PATH", "env.sqlite3")

	var cfg testConfig
	l := NewLoader(
		WithConfigFile(path),
		WithFlags(map[string]any{"server.redis.addr": "flag:3"}),
	)
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Redis.Addr != "flag:3" {
		t.Errorf("Addr = %q, flags should win", cfg.Server.Redis.Addr)
	}
	if cfg.Storage.Path != "env.sqlite3" {
		t.Errorf("Path = %q, env should beat file", cfg.Storage.Path)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, file value should remain", cfg.Log.Level)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load")
	}
	if l.GetString("server.redis.addr") != "flag:3" {
		t.Errorf("GetString() = %q", l.GetString("server.redis.addr"))
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"storage.path": "m.sqlite3", "log.level": "info"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.Get("storage.path"); got != "m.sqlite3" {
		t.Errorf("Get() = %v", got)
	}
	if len(l.Keys()) != 2 {
		t.Errorf("Keys() = %v, want 2 keys", l.Keys())
	}
}

func TestEnvKeyIndex(t *testing.T) {
	idx := envKeyIndex(&testConfig{})

	tests := map[string]string{
		"server_redis_addr":         "server.redis.addr",
		"server_redis_read_timeout": "server.redis.read_timeout",
		"storage_path":              "storage.path",
	}
	for env, want := range tests {
		if got := idx[env]; got != want {
			t.Errorf("idx[%q] = %q, want %q", env, got, want)
		}
	}
	if len(envKeyIndex(nil)) != 0 {
		t.Error("nil target should give an empty index")
	}
}

func TestMapProvider(t *testing.T) {
	m, err := mapProvider{"a.b.c": 1, "a.d": "x", "e": true}.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	a := m["a"].(map[string]any)
	if a["b"].(map[string]any)["c"] != 1 || a["d"] != "x" || m["e"] != true {
		t.Errorf("Read() = %v", m)
	}
	if _, err := (mapProvider{}).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}
}
