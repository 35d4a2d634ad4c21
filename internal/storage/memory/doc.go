// Package memory provides the in-memory key-value store for shardkv.
//
// Keys are spread over a fixed number of shards, each guarded by its own
// RWMutex. A key's shard is chosen by murmur3 hash and never changes for
// the lifetime of the store.
//
// Features:
//
//   - Sharded Storage: independent locks per shard for parallelism
//   - Lazy Expiry: expired entries are evicted when they are next touched
//   - Journaling: successful mutations are forwarded to an optional Journal
//
// Thread Safety:
//
// All operations are thread-safe. Reads take the shard's read lock and
// only upgrade to the write lock when an expired entry must be evicted.
package memory
