// Package storage provides the storage engine for shardkv.
//
// The engine owns the sharded memory store and the append-only log and
// manages their lifecycle:
//
//   - Recovery: replay the log into a fresh store before serving
//   - Repair: cut a torn final record so new appends start on a clean line
//   - Journaling: attach the log writer to the store after replay
//   - Degradation: if the log cannot be opened the engine keeps serving
//     from memory and reports that durability is disabled
package storage
