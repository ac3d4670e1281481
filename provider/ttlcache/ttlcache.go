// Package ttlcache adapts jellydator/ttlcache as a castore record cache with
// real per-entry expiry, which keeps tombstones short-lived.
package ttlcache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	pr "github.com/unkn0wn-root/castore/provider"
)

type Config struct {
	// Capacity bounds the number of entries; 0 means unbounded.
	Capacity uint64
}

type Provider struct {
	c *ttlcache.Cache[string, []byte]
}

var _ pr.Provider = (*Provider)(nil)

func New(cfg Config) *Provider {
	opts := []ttlcache.Option[string, []byte]{
		// Reads must not extend an entry's life or tombstones would stick.
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](cfg.Capacity))
	}
	c := ttlcache.New[string, []byte](opts...)
	go c.Start()
	return &Provider{c: c}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	it := p.c.Get(key)
	if it == nil || it.IsExpired() {
		return nil, false, nil
	}
	return it.Value(), true, nil
}

// Set with a non-positive ttl stores the entry without expiry.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	p.c.Set(key, value, ttl)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Delete(key)
	return nil
}

func (p *Provider) Len() int { return p.c.Len() }

func (p *Provider) Close(context.Context) error {
	p.c.Stop()
	return nil
}
