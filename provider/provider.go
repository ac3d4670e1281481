// Package provider defines the cache backend used by castore for both record
// caching and per-record locking.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// Important: keys under "<namespace>:<entity>:" are owned by castore. External
// code MUST NOT write values under these prefixes. Foreign writes fail wire
// validation and are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Locker is the atomic set-if-absent primitive castore serializes per-record
// critical sections on. Correctness across processes depends on TryLock being
// atomic in the backend every process shares.
type Locker interface {
	// TryLock stores token under key iff key is absent, expiring after ttl.
	// It never blocks waiting for a holder; ok=false means someone else holds it.
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (ok bool, err error)

	// Unlock deletes key iff it still holds token. released=false means the
	// lock expired or was taken over by another holder.
	Unlock(ctx context.Context, key, token string) (released bool, err error)
}
