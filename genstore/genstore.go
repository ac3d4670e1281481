// Package genstore keeps per-record generation counters. castore frames every
// cached entry with the generation it observed before loading; a later
// mismatch marks the entry stale.
package genstore

import "context"

// GenStore abstracts where generations live.
// Use Local for a single process, Redis when processes share a cache.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	Close(context.Context) error
}
