package castore

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	pr "github.com/unkn0wn-root/castore/provider"
)

// Lease is a held lock. Token identifies the holder; Release only deletes
// the lock while it still carries Token.
type Lease struct {
	Key   string
	Token string
}

// LockCoordinator turns a provider.Locker into per-record critical sections.
type LockCoordinator struct {
	locker  pr.Locker
	ttl     time.Duration
	min     time.Duration
	max     time.Duration
	maxWait time.Duration
	hooks   Hooks
	log     Logger
}

type LockOptions struct {
	TTL        time.Duration // lock expiry; 0 => 10s
	BackoffMin time.Duration // 0 => 10ms
	BackoffMax time.Duration // 0 => 200ms
	// MaxWait bounds how long Waiter.Wait keeps a caller waiting in total.
	// 0 leaves the wait unbounded except by the caller's context.
	MaxWait time.Duration
	Hooks   Hooks
	Logger  Logger
}

func NewLockCoordinator(locker pr.Locker, opts LockOptions) (*LockCoordinator, error) {
	if locker == nil {
		return nil, errors.New("castore: locker is required")
	}
	lc := &LockCoordinator{
		locker:  locker,
		ttl:     coalesce(opts.TTL, defaultLockTTL),
		min:     coalesce(opts.BackoffMin, defaultBackoffMin),
		max:     coalesce(opts.BackoffMax, defaultBackoffMax),
		maxWait: opts.MaxWait,
		hooks:   coalesce[Hooks](opts.Hooks, NopHooks{}),
		log:     coalesce[Logger](opts.Logger, NopLogger{}),
	}
	if lc.max < lc.min {
		lc.max = lc.min
	}
	return lc, nil
}

// TryAcquire makes one non-blocking attempt. ok=false means another holder
// has the lock.
func (lc *LockCoordinator) TryAcquire(ctx context.Context, key string) (Lease, bool, error) {
	token := uuid.NewString()
	ok, err := lc.locker.TryLock(ctx, key, token, lc.ttl)
	if err != nil || !ok {
		return Lease{}, false, err
	}
	return Lease{Key: key, Token: token}, true, nil
}

// Acquire retries TryAcquire with backoff until it wins, ctx is done or
// MaxWait elapses.
func (lc *LockCoordinator) Acquire(ctx context.Context, key string) (Lease, error) {
	var w *Waiter
	for {
		l, ok, err := lc.TryAcquire(ctx, key)
		if err != nil {
			return Lease{}, err
		}
		if ok {
			return l, nil
		}
		if w == nil {
			w = lc.Waiter(key)
		}
		if err := w.Wait(ctx); err != nil {
			return Lease{}, err
		}
	}
}

// Release deletes the lock if l still owns it. A lease that expired or was
// taken over is reported to hooks, not returned as an error.
func (lc *LockCoordinator) Release(ctx context.Context, l Lease) error {
	if l.Token == "" {
		return nil
	}
	// Release must run even when the caller's ctx is already done.
	ctx = context.WithoutCancel(ctx)
	released, err := lc.locker.Unlock(ctx, l.Key, l.Token)
	if err != nil {
		lc.hooks.LockReleaseFailed(l.Key, err)
		lc.log.Error(ctx, "lock release failed", Fields{"key": l.Key, "err": err})
		return err
	}
	if !released {
		lc.hooks.LockReleaseFailed(l.Key, nil)
		lc.log.Warn(ctx, "lock lost before release", Fields{"key": l.Key, "ttl": lc.ttl})
	}
	return nil
}

// Waiter tracks the backoff of one operation waiting on one lock.
type Waiter struct {
	lc       *LockCoordinator
	key      string
	bo       *backoff.ExponentialBackOff
	start    time.Time
	attempts int
}

func (lc *LockCoordinator) Waiter(key string) *Waiter {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = lc.min
	bo.MaxInterval = lc.max
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.5
	bo.Reset()
	return &Waiter{lc: lc, key: key, bo: bo, start: time.Now()}
}

// Wait records a contended attempt and sleeps for the next backoff interval.
// It returns a *LockContentionError once MaxWait has elapsed, or ctx.Err()
// when ctx is done first.
func (w *Waiter) Wait(ctx context.Context) error {
	w.attempts++
	w.lc.hooks.LockContended(w.key, w.attempts)

	d := w.bo.NextBackOff()
	if w.lc.maxWait > 0 {
		waited := time.Since(w.start)
		if waited >= w.lc.maxWait {
			w.lc.hooks.LockTimeout(w.key, waited)
			return &LockContentionError{Key: w.key, Attempts: w.attempts, Waited: waited}
		}
		if left := w.lc.maxWait - waited; d > left {
			d = left
		}
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (w *Waiter) Attempts() int { return w.attempts }
