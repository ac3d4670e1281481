package castore

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/castore/pagedsql"
)

type lookup int

const (
	lookupMiss lookup = iota
	lookupHit
	lookupMissing // tombstone
)

// QueryByID returns the record for id, loading it from the store on a cache
// miss. ok=false means the store has no such row.
//
// On a miss exactly one caller per id loads from the store; the others back
// off and re-read the cache. The wait ends when the loader finishes, when
// Options.LockWait elapses (ErrLockContention) or when ctx is done.
func (ca *CacheAside[T]) QueryByID(ctx context.Context, id int64) (T, bool, error) {
	var zero T
	if err := ca.checkOpen(); err != nil {
		return zero, false, err
	}
	if id <= 0 {
		return zero, false, nil
	}
	key, lockKey := ca.keys.data(id), ca.keys.lock(id)

	var w *Waiter
	for {
		if rec, st := ca.readCache(ctx, key); st != lookupMiss {
			return rec, st == lookupHit, nil
		}
		lease, ok, err := ca.locks.TryAcquire(ctx, lockKey)
		if err != nil {
			return zero, false, ca.backendErr(ctx, "lock", id, err)
		}
		if ok {
			return ca.load(ctx, id, key, lease)
		}
		if w == nil {
			w = ca.locks.Waiter(lockKey)
		}
		if err := w.Wait(ctx); err != nil {
			return zero, false, err
		}
	}
}

func (ca *CacheAside[T]) load(ctx context.Context, id int64, key string, lease Lease) (T, bool, error) {
	var zero T
	defer ca.locks.Release(ctx, lease)

	// The previous holder may have filled the entry after our miss.
	if rec, st := ca.readCache(ctx, key); st != lookupMiss {
		return rec, st == lookupHit, nil
	}

	obs, snapErr := ca.snapshot(ctx, key)
	rec, err := ca.store.SelectByID(ctx, id)
	if err != nil && !isNotFound(err) {
		return zero, false, ca.backendErr(ctx, "select", id, err)
	}
	found := err == nil && !isNil(rec)
	if snapErr == nil && (found || ca.cacheMissing) {
		if !found {
			rec = zero
		}
		ca.writeCache(ctx, key, rec, obs)
	}
	if !found {
		return zero, false, nil
	}
	return rec, true, nil
}

// GetMany looks up ids concurrently. The result has one slot per id in input
// order; ids <= 0, absent rows and failed lookups leave the zero value.
// Concurrency is capped per instance, shared by all callers. If ctx ends
// before every lookup finished, the partial result is returned with ctx.Err().
func (ca *CacheAside[T]) GetMany(ctx context.Context, ids []int64) ([]T, error) {
	if err := ca.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]T, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		if id <= 0 {
			continue
		}
		if err := ca.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer ca.sem.Release(1)
			rec, ok, err := ca.QueryByID(gctx, id)
			if err != nil {
				ca.log.Warn(gctx, "batch lookup failed", Fields{"entity": ca.entity, "id": id, "err": err})
				return nil
			}
			if ok {
				out[i] = rec
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, ctx.Err()
}

// Save inserts rec when its ID is 0 and updates it otherwise. actorID is
// stamped into UpdateBy.
//
// An update writes only the fields Differ reports as changed against the
// current record, then re-reads the canonical row and refreshes the cache,
// all while holding the record's lock. Uniqueness violations surface as
// *ConflictError.
func (ca *CacheAside[T]) Save(ctx context.Context, rec T, actorID int64) (T, error) {
	var zero T
	if err := ca.checkOpen(); err != nil {
		return zero, err
	}
	if isNil(rec) {
		return zero, errors.New("castore: save of nil record")
	}
	m := rec.GetModel()
	if m.ID == 0 {
		return ca.insert(ctx, rec, actorID)
	}

	return ca.lockedUpdate(ctx, m.ID, true, func(orig T) (Patch[T], error) {
		m.UpdateTime = ca.now()
		m.UpdateBy = actorID
		return ca.differ.Diff(orig, rec)
	})
}

func (ca *CacheAside[T]) insert(ctx context.Context, rec T, actorID int64) (T, error) {
	var zero T
	m := rec.GetModel()
	now := ca.now()
	m.CreateTime = now
	m.UpdateTime = now
	m.UpdateBy = actorID
	if err := ca.store.Insert(ctx, rec); err != nil {
		return zero, ca.writeErr(ctx, "insert", 0, err)
	}
	// Drop any tombstone cached while the id did not exist.
	if m.ID != 0 {
		ca.evict(ctx, "insert", m.ID)
	}
	return rec, nil
}

// Delete removes the row, then evicts the cache entry. The entry's
// generation is bumped first so a loader racing the delete cannot re-cache
// the old row. A row that is already gone still has its entry evicted and
// is reported as *NotFoundError.
func (ca *CacheAside[T]) Delete(ctx context.Context, id int64) error {
	if err := ca.checkOpen(); err != nil {
		return err
	}
	if err := ca.store.DeleteByID(ctx, id); err != nil {
		if isNotFound(err) {
			ca.evict(ctx, "delete", id)
			return &NotFoundError{Entity: ca.entity, ID: id}
		}
		return ca.backendErr(ctx, "delete", id, err)
	}
	ca.evict(ctx, "delete", id)
	return nil
}

// SoftDelete flags the record deleted and overwrites the cache entry with
// the flagged record, so readers see the flag without a store round trip.
func (ca *CacheAside[T]) SoftDelete(ctx context.Context, id int64, actorID int64) error {
	if err := ca.checkOpen(); err != nil {
		return err
	}
	_, err := ca.lockedUpdate(ctx, id, false, func(orig T) (Patch[T], error) {
		m := orig.GetModel()
		m.DelFlag = Deleted
		m.UpdateTime = ca.now()
		m.UpdateBy = actorID
		return Patch[T]{ID: id, Record: orig, Fields: []string{"DelFlag", "UpdateTime", "UpdateBy"}}, nil
	})
	return err
}

// lockedUpdate loads the current record through the cache, takes its lock,
// writes the patch built by mk and refreshes the cache. With reread the
// cached value is the row as the store returns it afterwards; otherwise it is
// the patched record itself.
func (ca *CacheAside[T]) lockedUpdate(ctx context.Context, id int64, reread bool, mk func(orig T) (Patch[T], error)) (T, error) {
	var zero T
	lockKey := ca.keys.lock(id)
	var w *Waiter
	for {
		orig, ok, err := ca.QueryByID(ctx, id)
		if err != nil {
			return zero, err
		}
		if !ok {
			return zero, &NotFoundError{Entity: ca.entity, ID: id}
		}
		lease, got, err := ca.locks.TryAcquire(ctx, lockKey)
		if err != nil {
			return zero, ca.backendErr(ctx, "lock", id, err)
		}
		if got {
			return ca.applyPatch(ctx, id, orig, reread, lease, mk)
		}
		if w == nil {
			w = ca.locks.Waiter(lockKey)
		}
		if err := w.Wait(ctx); err != nil {
			return zero, err
		}
	}
}

func (ca *CacheAside[T]) applyPatch(ctx context.Context, id int64, orig T, reread bool, lease Lease, mk func(orig T) (Patch[T], error)) (T, error) {
	var zero T
	defer ca.locks.Release(ctx, lease)

	patch, err := mk(orig)
	if err != nil {
		return zero, err
	}
	patch.ID = id
	key := ca.keys.data(id)
	obs, snapErr := ca.snapshot(ctx, key)

	if err := ca.store.UpdateByID(ctx, patch); err != nil {
		if isNotFound(err) {
			ca.evict(ctx, "update", id)
			return zero, &NotFoundError{Entity: ca.entity, ID: id}
		}
		return zero, ca.writeErr(ctx, "update", id, err)
	}

	result := patch.Record
	if reread {
		result, err = ca.store.SelectByID(ctx, id)
		if err != nil || isNil(result) {
			// The row changed under us; let the next reader reload it.
			ca.evict(ctx, "reread", id)
			if err == nil || isNotFound(err) {
				return zero, &NotFoundError{Entity: ca.entity, ID: id}
			}
			return zero, ca.backendErr(ctx, "select", id, err)
		}
	}

	if snapErr == nil {
		ca.writeCache(ctx, key, result, obs)
	} else {
		ca.evict(ctx, "update", id)
	}
	ca.log.Debug(ctx, "record updated", Fields{"entity": ca.entity, "id": id, "fields": patch.Fields})
	return result, nil
}

// SelectList passes filters to the store. Lists are not cached.
func (ca *CacheAside[T]) SelectList(ctx context.Context, filters []pagedsql.FilterRule) ([]T, error) {
	if err := ca.checkOpen(); err != nil {
		return nil, err
	}
	recs, err := ca.store.SelectList(ctx, filters)
	if err != nil {
		return nil, ca.backendErr(ctx, "select list", 0, err)
	}
	return recs, nil
}

// SelectOne returns the first record matching filters.
func (ca *CacheAside[T]) SelectOne(ctx context.Context, filters []pagedsql.FilterRule) (T, bool, error) {
	var zero T
	recs, err := ca.SelectList(ctx, filters)
	if err != nil || len(recs) == 0 {
		return zero, false, err
	}
	return recs[0], true, nil
}

// QueryPagedList returns one page of rows and the total matching count.
func (ca *CacheAside[T]) QueryPagedList(ctx context.Context, param pagedsql.PagedQueryParam) (PagedResult, error) {
	if err := ca.checkOpen(); err != nil {
		return PagedResult{}, err
	}
	total, err := ca.store.QueryTotalCount(ctx, param)
	if err != nil {
		return PagedResult{}, ca.backendErr(ctx, "count", 0, err)
	}
	res := PagedResult{TotalCount: total, Items: []map[string]any{}}
	if total == 0 {
		return res, nil
	}
	items, err := ca.store.QueryPagedList(ctx, param)
	if err != nil {
		return PagedResult{}, ca.backendErr(ctx, "page", 0, err)
	}
	if items != nil {
		res.Items = items
	}
	return res, nil
}

// Invalidate drops the cached entry for id and fences in-flight loaders.
func (ca *CacheAside[T]) Invalidate(ctx context.Context, id int64) error {
	if err := ca.checkOpen(); err != nil {
		return err
	}
	return ca.invalidate(ctx, ca.keys.data(id))
}

// Close closes the generation store and the provider. Further calls fail
// with ErrClosed.
func (ca *CacheAside[T]) Close(ctx context.Context) error {
	if ca.closed.Swap(true) {
		return nil
	}
	return errors.Join(ca.gen.Close(ctx), ca.provider.Close(ctx))
}

func (ca *CacheAside[T]) checkOpen() error {
	if ca.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (ca *CacheAside[T]) writeErr(ctx context.Context, op string, id int64, err error) error {
	if errors.Is(err, ErrDuplicate) {
		ca.log.Warn(ctx, "duplicate key", Fields{"entity": ca.entity, "id": id, "op": op, "err": err})
		return &ConflictError{Entity: ca.entity, ID: id, Err: err}
	}
	return ca.backendErr(ctx, op, id, err)
}

// evict invalidates id after a store write. The write already happened, so
// a failure is logged rather than returned.
func (ca *CacheAside[T]) evict(ctx context.Context, after string, id int64) {
	if err := ca.invalidate(ctx, ca.keys.data(id)); err != nil {
		ca.log.Error(ctx, "invalidate after "+after+" failed", Fields{"entity": ca.entity, "id": id, "err": err})
	}
}

// backendErr wraps store failures. Context errors and rejected query
// parameters are the caller's and pass through unwrapped.
func (ca *CacheAside[T]) backendErr(ctx context.Context, op string, id int64, err error) error {
	var ve *pagedsql.ValidationError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.As(err, &ve) {
		return err
	}
	ca.log.Error(ctx, op+" failed", Fields{"entity": ca.entity, "id": id, "err": err})
	return &BackendError{Op: op, Entity: ca.entity, ID: id, Err: err}
}
