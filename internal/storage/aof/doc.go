// Package aof provides the append-only durability log for shardkv.
//
// Every successful mutation of the store is appended as one text line.
// At startup the log is replayed from the beginning to rebuild the store.
//
// Features:
//
//   - Line Records: one mutation per line, written with a single Write
//   - Sync Modes: fsync after every append, once per second, or never
//   - Recovery: replay stops at the first torn or corrupt line and reports
//     the length of the valid prefix so the tail can be cut off
//
// Format:
//
//	SET <key> <value>
//	SETEX <key> <ttl-seconds> <value>
//	DEL <key>
//	EXPIRE <key> <ttl-seconds>
//
// Fields are separated by a single space. A field that is empty or holds a
// space, a control character, a double quote or invalid UTF-8 is written as
// a Go-quoted string; all other fields are written verbatim. TTLs are
// relative, so replay recomputes deadlines from the time of replay.
package aof
