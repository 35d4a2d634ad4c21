package memory

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

type shard struct {
	mu    sync.RWMutex
	items map[string]Entry
}

func newShard() *shard {
	return &shard{items: make(map[string]Entry)}
}

// evictIfExpired removes key if it is still expired. Caller holds mu.
func (sh *shard) evictIfExpired(key string, now uint64) bool {
	e, ok := sh.items[key]
	if !ok {
		return false
	}
	if e.IsExpired(now) {
		delete(sh.items, key)
		return true
	}
	return false
}

// ShardIndex returns the shard a key is routed to in a store of n shards.
func ShardIndex(key string, n int) int {
	return int(murmur3.Sum32([]byte(key)) % uint32(n))
}
