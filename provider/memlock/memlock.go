// Package memlock is an in-process Locker. Locks only exclude goroutines of
// the same process; use provider/redis when several processes share a store.
package memlock

import (
	"context"
	"errors"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	pr "github.com/unkn0wn-root/castore/provider"
)

type lease struct {
	token   string
	expires time.Time
}

type Locker struct {
	m   *xsync.MapOf[string, lease]
	now func() time.Time
}

var _ pr.Locker = (*Locker)(nil)

func New() *Locker {
	return &Locker{m: xsync.NewMapOf[string, lease](), now: time.Now}
}

// NewWithClock is New with an injectable clock, for tests.
func NewWithClock(now func() time.Time) *Locker {
	l := New()
	if now != nil {
		l.now = now
	}
	return l
}

func (l *Locker) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, errors.New("memlock: lock ttl must be positive")
	}
	now := l.now()
	acquired := false
	l.m.Compute(key, func(old lease, loaded bool) (lease, bool) {
		if loaded && now.Before(old.expires) {
			return old, false
		}
		acquired = true
		return lease{token: token, expires: now.Add(ttl)}, false
	})
	return acquired, nil
}

func (l *Locker) Unlock(_ context.Context, key, token string) (bool, error) {
	now := l.now()
	released := false
	l.m.Compute(key, func(old lease, loaded bool) (lease, bool) {
		if !loaded {
			return old, true
		}
		if old.token != token || !now.Before(old.expires) {
			// Expired leases are dropped whoever asks.
			return old, !now.Before(old.expires)
		}
		released = true
		return old, true
	})
	return released, nil
}

// Held reports whether key is currently locked.
func (l *Locker) Held(key string) bool {
	v, ok := l.m.Load(key)
	return ok && l.now().Before(v.expires)
}
