package castore

import (
	"context"

	"github.com/unkn0wn-root/castore/internal/wire"
)

// readCache returns the cached state of key. Entries that fail to decode or
// were written under an older generation are deleted and reported as misses.
// Provider errors are logged and also reported as misses: the store stays
// authoritative when the cache is down.
func (ca *CacheAside[T]) readCache(ctx context.Context, key string) (T, lookup) {
	var zero T
	raw, ok, err := ca.provider.Get(ctx, key)
	if err != nil {
		ca.log.Warn(ctx, "cache read failed", Fields{"key": key, "err": err})
		return zero, lookupMiss
	}
	if !ok {
		return zero, lookupMiss
	}
	e, err := wire.Decode(raw)
	if err != nil {
		ca.heal(ctx, key, "corrupt")
		return zero, lookupMiss
	}
	cur, err := ca.snapshot(ctx, key)
	if err != nil {
		return zero, lookupMiss
	}
	if e.Gen != cur {
		ca.heal(ctx, key, "gen_mismatch")
		return zero, lookupMiss
	}
	if e.Missing {
		return zero, lookupMissing
	}
	rec, err := ca.codec.Decode(e.Payload)
	if err != nil || isNil(rec) {
		ca.heal(ctx, key, "value_decode")
		return zero, lookupMiss
	}
	return rec, lookupHit
}

// writeCache stores rec (or a tombstone for a nil rec) framed with observed,
// the generation read before the store was consulted. Nothing is written if
// the generation moved since.
func (ca *CacheAside[T]) writeCache(ctx context.Context, key string, rec T, observed uint64) {
	cur, err := ca.snapshot(ctx, key)
	if err != nil {
		return
	}
	if cur != observed {
		ca.log.Debug(ctx, "cache write skipped (gen mismatch)", Fields{"key": key, "obs": observed, "cur": cur})
		return
	}

	var (
		b   []byte
		ttl = ca.ttl
	)
	if isNil(rec) {
		b = wire.EncodeMissing(observed)
		ttl = ca.missingTTL
	} else {
		payload, err := ca.codec.Encode(rec)
		if err != nil {
			ca.log.Warn(ctx, "encode failed; not caching", Fields{"key": key, "err": err})
			return
		}
		b = wire.EncodeValue(observed, payload)
	}

	ok, err := ca.provider.Set(ctx, key, b, int64(len(b)), ttl)
	if err != nil {
		ca.log.Warn(ctx, "cache write failed", Fields{"key": key, "err": err})
		return
	}
	if !ok {
		ca.hooks.ProviderSetRejected(key)
		ca.log.Debug(ctx, "cache write rejected by provider (pressure)", Fields{"key": key})
	}
}

// invalidate bumps the generation, then deletes the entry. Either step
// alone keeps readers off the old value.
func (ca *CacheAside[T]) invalidate(ctx context.Context, key string) error {
	newGen, bumpErr := ca.gen.Bump(ctx, key)
	if bumpErr != nil {
		ca.hooks.GenBumpError(key, bumpErr)
	}
	delErr := ca.provider.Del(ctx, key)
	if bumpErr != nil && delErr != nil {
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	ca.log.Debug(ctx, "invalidated key", Fields{"key": key, "newGen": newGen})
	return nil
}

func (ca *CacheAside[T]) heal(ctx context.Context, key, reason string) {
	ca.hooks.SelfHeal(key, reason)
	if err := ca.provider.Del(ctx, key); err != nil {
		ca.log.Warn(ctx, "self-heal delete failed", Fields{"key": key, "reason": reason, "err": err})
	}
}

func (ca *CacheAside[T]) snapshot(ctx context.Context, key string) (uint64, error) {
	g, err := ca.gen.Snapshot(ctx, key)
	if err != nil {
		ca.hooks.GenSnapshotError(key, err)
		ca.log.Warn(ctx, "gen snapshot error", Fields{"key": key, "err": err})
	}
	return g, err
}
