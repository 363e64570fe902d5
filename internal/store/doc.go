// Package store provides the scoped key-value stores backing the workspace.
//
// Every backend implements KeyValueStore: string keys, string values,
// get/set/remove plus a prefix listing used for cascade checks and
// diagnostics. A scope partitions one physical store into independent
// sessions; two stores opened with different scopes never see each
// other's keys.
//
// Backends:
//   - Memory: in-process map. Used by tests and the "memory" backend.
//   - Store: SQLite file with a single kv table (WAL mode).
//   - Bolt: bbolt file with one bucket per scope.
//   - Redis: keys prefixed with "<scope>:".
//
// # Consistency
//
// The workspace assumes exactly one active writer per scope. Each Set
// replaces a whole value; there is no read-modify-write locking and the
// last writer wins.
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
