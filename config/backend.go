package config

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/castore"
	gen "github.com/unkn0wn-root/castore/genstore"
	pr "github.com/unkn0wn-root/castore/provider"
	bcprov "github.com/unkn0wn-root/castore/provider/bigcache"
	"github.com/unkn0wn-root/castore/provider/memlock"
	rprov "github.com/unkn0wn-root/castore/provider/redis"
	rtprov "github.com/unkn0wn-root/castore/provider/ristretto"
	scprov "github.com/unkn0wn-root/castore/provider/sturdyc"
	tcprov "github.com/unkn0wn-root/castore/provider/ttlcache"
)

// Backend holds the cache, lock and generation backends selected by
// CacheConfig.Provider. With the redis provider all three share one client;
// the in-process providers pair with memlock and genstore.Local.
type Backend struct {
	Provider pr.Provider
	Locker   pr.Locker
	GenStore gen.GenStore

	rdb goredis.UniversalClient
}

// Redis returns the shared client, or nil for in-process providers.
func (b *Backend) Redis() goredis.UniversalClient { return b.rdb }

// Close releases the shared redis client. Provider and GenStore are closed
// by the CacheAside that owns them.
func (b *Backend) Close() error {
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func (c *Config) NewBackend(ctx context.Context) (*Backend, error) {
	cc := c.Cache
	switch cc.Provider {
	case ProviderRedis:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", c.Redis.Addr, err)
		}
		p, err := rprov.New(rprov.Config{Client: rdb})
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		gs, err := gen.NewRedis(gen.RedisConfig{Client: rdb, Namespace: c.Namespace, TTL: c.Redis.GenTTL})
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return &Backend{Provider: p, Locker: p, GenStore: gs, rdb: rdb}, nil

	case ProviderRistretto:
		p, err := rtprov.New(rtprov.Config{
			MaxEntries: cc.MaxEntries,
			MaxCost:    cc.MaxEntries << 10, // cost is the framed entry size in bytes
		})
		if err != nil {
			return nil, err
		}
		return local(p), nil

	case ProviderBigCache:
		p, err := bcprov.New(ctx, bcprov.Config{LifeWindow: coalesce(cc.DefaultTTL, 10*time.Minute)})
		if err != nil {
			return nil, err
		}
		return local(p), nil

	case ProviderSturdyc:
		p, err := scprov.New(scprov.Config{
			Capacity:  int(cc.MaxEntries),
			NumShards: 16,
			TTL:       coalesce(cc.DefaultTTL, 10*time.Minute),
		})
		if err != nil {
			return nil, err
		}
		return local(p), nil

	case ProviderTTLCache:
		return local(tcprov.New(tcprov.Config{Capacity: uint64(cc.MaxEntries)})), nil
	}
	return nil, fmt.Errorf("unknown cache provider %q", cc.Provider)
}

func local(p pr.Provider) *Backend {
	return &Backend{
		Provider: p,
		Locker:   memlock.New(),
		GenStore: gen.NewLocal(time.Hour, 30*24*time.Hour),
	}
}

// Apply copies the loaded settings and the backend into opts. Store, Codec
// and the other per-entity fields stay with the caller.
func Apply[T castore.Record](c *Config, b *Backend, opts *castore.Options[T]) {
	opts.Namespace = c.Namespace
	opts.Provider = b.Provider
	opts.Locker = b.Locker
	opts.GenStore = b.GenStore
	opts.DefaultTTL = c.Cache.DefaultTTL
	opts.MissingTTL = c.Cache.MissingTTL
	opts.CacheMissing = c.Cache.CacheMissing
	opts.Concurrency = c.Cache.Concurrency
	opts.LockTTL = c.Lock.TTL
	opts.BackoffMin = c.Lock.BackoffMin
	opts.BackoffMax = c.Lock.BackoffMax
	opts.LockWait = c.Lock.Wait
}

// LockOptions maps the lock section onto castore.LockOptions.
func (c *Config) LockOptions() castore.LockOptions {
	return castore.LockOptions{
		TTL:        c.Lock.TTL,
		BackoffMin: c.Lock.BackoffMin,
		BackoffMax: c.Lock.BackoffMax,
		MaxWait:    c.Lock.Wait,
	}
}

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
