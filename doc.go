// Package castore is a cache-aside data-access layer for records keyed by a
// numeric id. Reads go through the cache; misses are loaded from the Store
// by exactly one caller per id at a time, serialized on a per-record lock
// held in the cache backend, so a burst of readers for a cold id costs one
// database load.
//
// Components:
//   - Store[T]: the authoritative relational store (see store/bunstore).
//   - provider.Provider: byte cache with TTL (Redis, Ristretto, BigCache, ...).
//   - provider.Locker: atomic set-if-absent lock primitive. provider/redis
//     implements both; provider/memlock covers a single process.
//   - GenStore: per-key generation counters fencing stale writes.
//   - Differ[T]: computes the changed fields of an update.
//
// Keys:
//
//	<namespace>:<entity>:<id>       - cached record or tombstone
//	<namespace>:<entity>:LOCK:<id>  - lock holder token
//
// Updates are read-modify-diff-write: Save loads the current record through
// the cache, locks the id, writes only the fields that changed, re-reads the
// canonical row and refreshes the cache before releasing the lock.
package castore
