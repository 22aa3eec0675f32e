// Package store provides the persistent key-value store behind the tag pipeline.
//
// The store mirrors a browser's per-user storage object: string keys, string
// values, JSON encoding layered on top. Two backends exist:
//   - SQLite: durable file-backed storage (kv table)
//   - Memory: process-local storage, also used to simulate failures in tests
//
// # Failure Tolerance
//
// Storage is a best-effort cache, not a durability guarantee. KV wraps a
// Backend so that every read failure yields the caller's fallback and every
// write failure is swallowed (logged at debug level). Callers keep their
// in-memory value either way.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Schema changes are tracked through PRAGMA user_version.
package store
