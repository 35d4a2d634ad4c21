package benchmark

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yndnr/shardkv/internal/storage/aof"
	"github.com/yndnr/shardkv/internal/storage/memory"
)

func openWriter(b *testing.B, mode aof.SyncMode) (*aof.Writer, string) {
	b.Helper()
	path := filepath.Join(b.TempDir(), "aof.log")
	cfg := aof.DefaultConfig(path)
	cfg.SyncMode = mode

	w, err := aof.Open(cfg)
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	b.Cleanup(func() { w.Close() })
	return w, path
}

// BenchmarkAOFAppend benchmarks appends under each fsync policy.
func BenchmarkAOFAppend(b *testing.B) {
	for _, mode := range []aof.SyncMode{aof.SyncNo, aof.SyncEverySec, aof.SyncAlways} {
		b.Run(string(mode), func(b *testing.B) {
			w, _ := openWriter(b, mode)
			value := makeValue(64)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if err := w.AppendSet("key:bench", value); err != nil {
					b.Fatalf("Append failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkAOFAppendQuoted benchmarks appends of values that need quoting.
func BenchmarkAOFAppendQuoted(b *testing.B) {
	w, _ := openWriter(b, aof.SyncNo)
	value := []byte("line one\r\nline \"two\"\twith spaces")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := w.AppendSetEx("key:quoted", 60, value); err != nil {
			b.Fatalf("Append failed: %v", err)
		}
	}
}

// BenchmarkAOFReplay benchmarks startup replay at various scales.
func BenchmarkAOFReplay(b *testing.B) {
	runWithKeyCounts(b, KeyCounts, func(b *testing.B, count int) {
		w, path := openWriter(b, aof.SyncNo)
		value := makeValue(64)
		for _, k := range makeKeys(count) {
			if err := w.AppendSet(k, value); err != nil {
				b.Fatalf("Append failed: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			b.Fatalf("Close failed: %v", err)
		}

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			store := memory.New(memory.DefaultShardCount)
			res, err := aof.NewReader(path).Replay(context.Background(), store)
			if err != nil {
				b.Fatalf("Replay failed: %v", err)
			}
			if res.Applied != count {
				b.Fatalf("Applied = %d, want %d", res.Applied, count)
			}
		}

		b.ReportMetric(float64(count*b.N)/b.Elapsed().Seconds(), "records/s")
	})
}

// BenchmarkStoreSetJournaled benchmarks SET through the store with the
// log attached, as the server runs it.
func BenchmarkStoreSetJournaled(b *testing.B) {
	w, _ := openWriter(b, aof.SyncNo)
	store := memory.New(memory.DefaultShardCount, memory.WithJournal(w))
	keys := makeKeys(10000)
	value := makeValue(64)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		store.Set(keys[i%len(keys)], value)
	}
}
