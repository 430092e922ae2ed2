package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/yndnr/blueis/internal/cli/connection"
	"github.com/yndnr/blueis/internal/core/domain"
	"github.com/yndnr/blueis/internal/core/service"
	"github.com/yndnr/blueis/internal/server/redisserver"
	"github.com/yndnr/blueis/internal/storage"
)

// ListLengths defines the list sizes for benchmarking.
var ListLengths = []int{100, 1000, 10000, 100000}

// SmallListLengths for quick benchmarks.
var SmallListLengths = []int{100, 1000}

// openEngine opens a fresh database in a temporary directory.
func openEngine(b *testing.B) *storage.Engine {
	b.Helper()
	engine, err := storage.Open(context.Background(),
		storage.DefaultConfig(filepath.Join(b.TempDir(), "bench.sqlite3")))
	if err != nil {
		b.Fatalf("storage.Open failed: %v", err)
	}
	b.Cleanup(func() { engine.Close() })
	return engine
}

// prefillList pushes count elements onto key in batches.
func prefillList(b *testing.B, engine *storage.Engine, key []byte, count int) {
	b.Helper()
	const batch = 1000
	ctx := context.Background()
	for i := 0; i < count; i += batch {
		n := min(batch, count-i)
		values := make([][]byte, n)
		for j := range values {
			values[j] = []byte(fmt.Sprintf("value-%d", i+j))
		}
		if _, err := engine.Push(ctx, key, domain.Right, values, false); err != nil {
			b.Fatalf("prefill: %v", err)
		}
	}
}

// startServer serves a fresh database and returns its address.
func startServer(b *testing.B) string {
	b.Helper()
	engine := openEngine(b)
	cfg := redisserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	svc := service.NewListService(engine, storage.NewKeyLocks(0), service.NewCoordinator(), nil)
	srv := redisserver.New(cfg, svc, nil, nil, nil)
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("Start() error = %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv.Addrs()[0].String()
}

func dial(b *testing.B, addr string) *connection.Client {
	b.Helper()
	c, err := connection.Dial(context.Background(), connection.Options{Addr: addr})
	if err != nil {
		b.Fatalf("Dial() error = %v", err)
	}
	b.Cleanup(func() { c.Close() })
	return c
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithListLengths runs a benchmark function with various list lengths.
func runWithListLengths(b *testing.B, lengths []int, benchFn func(b *testing.B, length int)) {
	for _, n := range lengths {
		b.Run(fmt.Sprintf("len_%d", n), func(b *testing.B) {
			benchFn(b, n)
		})
	}
}
