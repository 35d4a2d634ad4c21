package metric

import (
	"testing"

	"github.com/yndnr/shardkv/internal/storage"
)

type fakeSource struct {
	stats storage.Stats
	lens  []int
}

func (f *fakeSource) Stats() storage.Stats { return f.stats }
func (f *fakeSource) ShardLens() []int     { return f.lens }

func TestCollector(t *testing.T) {
	src := &fakeSource{
		stats: storage.Stats{
			Keys:            5,
			Durable:         true,
			AOFSize:         1024,
			AOFAppended:     7,
			JournalErrors:   1,
			ReplayApplied:   3,
			ReplayTruncated: true,
		},
		lens: []int{2, 0, 3},
	}

	r := NewRegistry()
	if err := r.Register(NewCollector(src)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	body := scrape(t, r)
	expectLine(t, body, "shardkv_keys 5")
	expectLine(t, body, "shardkv_aof_enabled 1")
	expectLine(t, body, "shardkv_aof_size_bytes 1024")
	expectLine(t, body, "shardkv_aof_appended_records_total 7")
	expectLine(t, body, "shardkv_aof_errors_total 1")
	expectLine(t, body, "shardkv_aof_replayed_records 3")
	expectLine(t, body, "shardkv_aof_replay_truncated 1")
	expectLine(t, body, `shardkv_shard_keys{shard="0"} 2`)
	expectLine(t, body, `shardkv_shard_keys{shard="2"} 3`)
}

func TestCollector_ReadsAtScrape(t *testing.T) {
	src := &fakeSource{lens: []int{0}}
	r := NewRegistry()
	if err := r.Register(NewCollector(src)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	expectLine(t, scrape(t, r), "shardkv_keys 0")

	src.stats.Keys = 9
	expectLine(t, scrape(t, r), "shardkv_keys 9")
}

func TestCollector_DoubleRegister(t *testing.T) {
	r := NewRegistry()
	src := &fakeSource{}
	if err := r.Register(NewCollector(src)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(NewCollector(src)); err == nil {
		t.Error("second Register() should fail on duplicate descriptors")
	}
}
