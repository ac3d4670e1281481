package castore

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A cached entry was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// TryAcquire found the lock held; attempt counts from 1 per operation.
	LockContended(lockKey string, attempt int)

	// LockWait elapsed before the lock could be taken.
	LockTimeout(lockKey string, waited time.Duration)

	// Release found the lock gone or held by someone else, or failed.
	LockReleaseFailed(lockKey string, err error)

	GenSnapshotError(storageKey string, err error)
	GenBumpError(storageKey string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)           {}
func (NopHooks) ProviderSetRejected(string)        {}
func (NopHooks) LockContended(string, int)         {}
func (NopHooks) LockTimeout(string, time.Duration) {}
func (NopHooks) LockReleaseFailed(string, error)   {}
func (NopHooks) GenSnapshotError(string, error)    {}
func (NopHooks) GenBumpError(string, error)        {}
