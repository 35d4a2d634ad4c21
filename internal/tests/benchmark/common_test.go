package benchmark

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/shardkv/internal/storage/memory"
)

// KeyCounts defines the key counts for benchmarking.
var KeyCounts = []int{10000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

// newKey generates a unique, time-ordered key.
func newKey() string {
	return "user:" + strings.ToLower(ulid.Make().String())
}

// makeKeys returns n keys of the form key:<i>.
func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key:%d", i)
	}
	return keys
}

// makeValue returns a value of the given size.
func makeValue(size int) []byte {
	return []byte(strings.Repeat("v", size))
}

// prefillStore fills a store with count keys.
func prefillStore(store *memory.Store, count int) []string {
	keys := makeKeys(count)
	value := makeValue(64)
	for _, k := range keys {
		store.Set(k, value)
	}
	return keys
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various key counts.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
