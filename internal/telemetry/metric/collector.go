package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/shardkv/internal/storage"
)

// StorageSource is the part of the storage engine the collector reads.
type StorageSource interface {
	Stats() storage.Stats
	ShardLens() []int
}

// Collector reads storage statistics at scrape time.
type Collector struct {
	src StorageSource

	keys            *prometheus.Desc
	shardKeys       *prometheus.Desc
	durable         *prometheus.Desc
	aofSize         *prometheus.Desc
	aofAppended     *prometheus.Desc
	journalErrors   *prometheus.Desc
	replayApplied   *prometheus.Desc
	replayTruncated *prometheus.Desc
}

// NewCollector creates a collector over src.
func NewCollector(src StorageSource) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		src:             src,
		keys:            desc("keys", "Entries held in the store, including expired ones not yet evicted."),
		shardKeys:       desc("shard_keys", "Entries held per shard.", "shard"),
		durable:         desc("aof_enabled", "1 when mutations are journaled to the AOF."),
		aofSize:         desc("aof_size_bytes", "Current AOF size."),
		aofAppended:     desc("aof_appended_records_total", "Records appended to the AOF since start."),
		journalErrors:   desc("aof_errors_total", "Failed AOF appends."),
		replayApplied:   desc("aof_replayed_records", "Records applied during startup replay."),
		replayTruncated: desc("aof_replay_truncated", "1 when startup replay stopped at a torn or corrupt tail."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.shardKeys
	ch <- c.durable
	ch <- c.aofSize
	ch <- c.aofAppended
	ch <- c.journalErrors
	ch <- c.replayApplied
	ch <- c.replayTruncated
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.Keys))
	ch <- prometheus.MustNewConstMetric(c.durable, prometheus.GaugeValue, boolFloat(st.Durable))
	ch <- prometheus.MustNewConstMetric(c.aofSize, prometheus.GaugeValue, float64(st.AOFSize))
	ch <- prometheus.MustNewConstMetric(c.aofAppended, prometheus.CounterValue, float64(st.AOFAppended))
	ch <- prometheus.MustNewConstMetric(c.journalErrors, prometheus.CounterValue, float64(st.JournalErrors))
	ch <- prometheus.MustNewConstMetric(c.replayApplied, prometheus.GaugeValue, float64(st.ReplayApplied))
	ch <- prometheus.MustNewConstMetric(c.replayTruncated, prometheus.GaugeValue, boolFloat(st.ReplayTruncated))

	for i, n := range c.src.ShardLens() {
		ch <- prometheus.MustNewConstMetric(c.shardKeys, prometheus.GaugeValue, float64(n), strconv.Itoa(i))
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
