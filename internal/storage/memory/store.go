package memory

import (
	"time"

	"github.com/yndnr/shardkv/pkg/glob"
)

// DefaultShardCount is used when New is given a non-positive shard count.
const DefaultShardCount = 64

// Journal receives every successful mutation, in the order it was applied
// to its key. Implementations must be safe for concurrent use.
type Journal interface {
	AppendSet(key string, value []byte) error
	AppendSetEx(key string, ttlSeconds int64, value []byte) error
	AppendDel(key string) error
	AppendExpire(key string, ttlSeconds int64) error
}

// JournalErrorHandler is called when the journal rejects a mutation that
// was already applied in memory. op is the record kind ("SET", "DEL", ...).
type JournalErrorHandler func(op, key string, err error)

// Store is a sharded in-memory key-value store with lazy TTL expiry.
type Store struct {
	shards []*shard

	journal   Journal
	onJournal JournalErrorHandler

	clock func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithJournal attaches a journal at construction time.
func WithJournal(j Journal) Option {
	return func(s *Store) {
		s.journal = j
	}
}

// WithJournalErrorHandler sets the callback for journal write failures.
func WithJournalErrorHandler(fn JournalErrorHandler) Option {
	return func(s *Store) {
		s.onJournal = fn
	}
}

// New creates a store with shardCount shards.
func New(shardCount int, opts ...Option) *Store {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}

	s := &Store{
		shards: make([]*shard, shardCount),
		clock:  time.Now,
	}
	for i := range s.shards {
		s.shards[i] = newShard()
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AttachJournal starts forwarding mutations to j. It must be called before
// the store is shared with other goroutines; replay runs without a journal
// and the journal is attached afterwards.
func (s *Store) AttachJournal(j Journal) {
	s.journal = j
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[ShardIndex(key, len(s.shards))]
}

func (s *Store) now() uint64 {
	sec := s.clock().Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}

// expireAt converts a relative TTL to an absolute deadline. A deadline of
// zero would mean "never", so it is clamped to one.
func expireAt(now uint64, ttlSeconds int64) uint64 {
	if ttlSeconds < 0 {
		ttlSeconds = 0
	}
	at := now + uint64(ttlSeconds)
	if at == 0 {
		at = 1
	}
	return at
}

func (s *Store) journalErr(op, key string, err error) {
	if err != nil && s.onJournal != nil {
		s.onJournal(op, key, err)
	}
}

// Get returns the value stored at key. The returned slice must not be
// modified.
func (s *Store) Get(key string) ([]byte, bool) {
	sh := s.shardFor(key)
	now := s.now()

	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !e.IsExpired(now) {
		return e.Data, true
	}

	sh.mu.Lock()
	sh.evictIfExpired(key, now)
	sh.mu.Unlock()
	return nil, false
}

// Set stores value at key without expiry.
func (s *Store) Set(key string, value []byte) {
	sh := s.shardFor(key)
	data := clone(value)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.items[key] = Entry{Data: data}
	if s.journal != nil {
		s.journalErr("SET", key, s.journal.AppendSet(key, data))
	}
}

// SetWithTTL stores value at key, expiring ttlSeconds from now. A TTL of
// zero stores an entry that is already expired.
func (s *Store) SetWithTTL(key string, value []byte, ttlSeconds int64) {
	sh := s.shardFor(key)
	data := clone(value)
	at := expireAt(s.now(), ttlSeconds)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.items[key] = Entry{Data: data, ExpireAt: at}
	if s.journal != nil {
		s.journalErr("SETEX", key, s.journal.AppendSetEx(key, ttlSeconds, data))
	}
}

// Delete removes key and reports whether a live entry was removed.
func (s *Store) Delete(key string) bool {
	sh := s.shardFor(key)
	now := s.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.items[key]
	if !ok {
		return false
	}
	delete(sh.items, key)
	if e.IsExpired(now) {
		return false
	}

	if s.journal != nil {
		s.journalErr("DEL", key, s.journal.AppendDel(key))
	}
	return true
}

// Exists reports whether key holds a live entry.
func (s *Store) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Expire sets a TTL on an existing key. It returns false if the key is
// absent or already expired.
func (s *Store) Expire(key string, ttlSeconds int64) bool {
	sh := s.shardFor(key)
	now := s.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.items[key]
	if !ok {
		return false
	}
	if e.IsExpired(now) {
		delete(sh.items, key)
		return false
	}

	e.ExpireAt = expireAt(now, ttlSeconds)
	sh.items[key] = e
	if s.journal != nil {
		s.journalErr("EXPIRE", key, s.journal.AppendExpire(key, ttlSeconds))
	}
	return true
}

// TTL returns the remaining lifetime of key in seconds, -1 if the key has
// no expiry and -2 if it does not exist.
func (s *Store) TTL(key string) int64 {
	sh := s.shardFor(key)
	now := s.now()

	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()

	if !ok {
		return -2
	}
	if e.IsExpired(now) {
		sh.mu.Lock()
		sh.evictIfExpired(key, now)
		sh.mu.Unlock()
		return -2
	}
	return e.TTL(now)
}

// Keys returns all live keys matching the glob pattern. Expired entries
// found during the scan are evicted. The order is unspecified.
func (s *Store) Keys(pattern string) []string {
	now := s.now()
	all := glob.MatchAll(pattern)

	var keys []string
	var expired []string

	for _, sh := range s.shards {
		expired = expired[:0]

		sh.mu.RLock()
		for k, e := range sh.items {
			if e.IsExpired(now) {
				expired = append(expired, k)
				continue
			}
			if all || glob.Match(pattern, k) {
				keys = append(keys, k)
			}
		}
		sh.mu.RUnlock()

		if len(expired) > 0 {
			sh.mu.Lock()
			for _, k := range expired {
				sh.evictIfExpired(k, now)
			}
			sh.mu.Unlock()
		}
	}

	return keys
}

// Len returns the number of stored entries, including expired entries
// that have not been evicted yet.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

// ShardCount returns the fixed number of shards.
func (s *Store) ShardCount() int {
	return len(s.shards)
}

// ShardLens returns the number of entries held by each shard.
func (s *Store) ShardLens() []int {
	lens := make([]int, len(s.shards))
	for i, sh := range s.shards {
		sh.mu.RLock()
		lens[i] = len(sh.items)
		sh.mu.RUnlock()
	}
	return lens
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
