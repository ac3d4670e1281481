package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/castore/genstore"
)

// newClient connects to CASTORE_TEST_REDIS_ADDR and flushes the selected db.
func newClient(t *testing.T) goredis.UniversalClient {
	t.Helper()
	addr := os.Getenv("CASTORE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CASTORE_TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisGetSetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{Client: newClient(t)})
	require.NoError(t, err)

	_, ok, err := p.Get(ctx, "app:user:1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Set(ctx, "app:user:1", []byte("v"), 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	b, ok, err := p.Get(ctx, "app:user:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	require.NoError(t, p.Del(ctx, "app:user:1"))
	_, ok, _ = p.Get(ctx, "app:user:1")
	assert.False(t, ok)
}

func TestRedisLockTokens(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{Client: newClient(t)})
	require.NoError(t, err)

	ok, err := p.TryLock(ctx, "app:user:LOCK:1", "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = p.TryLock(ctx, "app:user:LOCK:1", "b", time.Minute)
	assert.False(t, ok)

	released, err := p.Unlock(ctx, "app:user:LOCK:1", "b")
	require.NoError(t, err)
	assert.False(t, released)
	released, err = p.Unlock(ctx, "app:user:LOCK:1", "a")
	require.NoError(t, err)
	assert.True(t, released)

	_, err = p.TryLock(ctx, "app:user:LOCK:1", "a", 0)
	assert.Error(t, err)
}

func TestRedisGenStore(t *testing.T) {
	ctx := context.Background()
	gs, err := genstore.NewRedis(genstore.RedisConfig{Client: newClient(t), Namespace: "app", TTL: time.Hour})
	require.NoError(t, err)

	g, err := gs.Snapshot(ctx, "app:user:1")
	require.NoError(t, err)
	assert.Zero(t, g)
	g1, err := gs.Bump(ctx, "app:user:1")
	require.NoError(t, err)
	g2, err := gs.Bump(ctx, "app:user:1")
	require.NoError(t, err)
	assert.Greater(t, g2, g1)
	g, _ = gs.Snapshot(ctx, "app:user:1")
	assert.Equal(t, g2, g)
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}
