package memlock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestTryLockExcludesOtherTokens(t *testing.T) {
	ctx := context.Background()
	l := New()

	ok, err := l.TryLock(ctx, "k", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryLock(ctx, "k", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, l.Held("k"))
}

func TestUnlockRequiresMatchingToken(t *testing.T) {
	ctx := context.Background()
	l := New()
	_, _ = l.TryLock(ctx, "k", "a", time.Minute)

	released, err := l.Unlock(ctx, "k", "b")
	require.NoError(t, err)
	assert.False(t, released)
	assert.True(t, l.Held("k"))

	released, err = l.Unlock(ctx, "k", "a")
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, l.Held("k"))
}

func TestExpiredLeaseCanBeTaken(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Unix(1000, 0)}
	l := NewWithClock(c.now)

	ok, _ := l.TryLock(ctx, "k", "a", time.Second)
	require.True(t, ok)
	c.advance(2 * time.Second)

	ok, _ = l.TryLock(ctx, "k", "b", time.Second)
	assert.True(t, ok)

	released, _ := l.Unlock(ctx, "k", "a")
	assert.False(t, released, "stale holder must not release the new lease")
	assert.True(t, l.Held("k"))
}

func TestRejectsNonPositiveTTL(t *testing.T) {
	_, err := New().TryLock(context.Background(), "k", "a", 0)
	assert.Error(t, err)
}

func TestSingleWinnerUnderContention(t *testing.T) {
	ctx := context.Background()
	l := New()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if ok, _ := l.TryLock(ctx, "k", fmt.Sprint("t", i), time.Minute); ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
