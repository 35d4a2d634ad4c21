package memory

// Entry is a stored value with its optional expiry.
//
// ExpireAt is an absolute unix time in seconds; zero means the entry
// never expires. Entries are replaced wholesale on every write and the
// Data slice is never mutated after it is stored.
type Entry struct {
	Data     []byte
	ExpireAt uint64
}

// IsExpired reports whether the entry is expired at the given unix second.
func (e Entry) IsExpired(now uint64) bool {
	return e.ExpireAt != 0 && e.ExpireAt <= now
}

// TTL returns the remaining whole seconds at now, or -1 if the entry has
// no expiry. Callers must check IsExpired first.
func (e Entry) TTL(now uint64) int64 {
	if e.ExpireAt == 0 {
		return -1
	}
	if e.ExpireAt <= now {
		return 0
	}
	return int64(e.ExpireAt - now)
}
