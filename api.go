package castore

import (
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	c "github.com/unkn0wn-root/castore/codec"
	gen "github.com/unkn0wn-root/castore/genstore"
	pr "github.com/unkn0wn-root/castore/provider"
	"github.com/unkn0wn-root/castore/provider/memlock"
	rprov "github.com/unkn0wn-root/castore/provider/redis"
)

// Options configure one CacheAside instance. Namespace, EntityKey, Store and
// Provider are required; others have defaults.
type Options[T Record] struct {
	Namespace string // process-wide prefix, e.g. "app"
	EntityKey string // per entity type, e.g. "user"
	Store     Store[T]
	Provider  pr.Provider

	// Locker defaults to Provider when it implements provider.Locker,
	// otherwise to an in-process memlock. Locks only exclude other
	// processes when they share a backend, e.g. provider/redis.
	Locker pr.Locker
	Codec  c.Codec[T] // nil => JSON
	Differ Differ[T]  // nil => FieldDiffer

	// GenStore must be shared by every instance that shares Provider;
	// otherwise each instance rejects entries the others wrote. When nil it
	// defaults to a redis genstore on the same client for provider/redis,
	// and to an in-process genstore.Local when the locker is a memlock.
	// Any other Locker is shared by assumption, and New fails without an
	// explicit GenStore.
	GenStore gen.GenStore

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	DefaultTTL time.Duration // records; 0 => 10m
	MissingTTL time.Duration // tombstones; 0 => 30s
	// CacheMissing stores a tombstone when the store has no row, so repeated
	// reads of an absent id do not each hit the store.
	CacheMissing bool

	LockTTL    time.Duration // 0 => 10s
	BackoffMin time.Duration // 0 => 10ms
	BackoffMax time.Duration // 0 => 200ms
	// LockWait bounds how long one call waits for a contended lock before
	// failing with ErrLockContention. 0 means no bound: the call waits until
	// the holder releases or the lock expires, limited only by ctx.
	LockWait time.Duration

	// Concurrency caps in-flight lookups across all GetMany calls on this
	// instance; 0 => 10.
	Concurrency int

	CleanupInterval time.Duration // default genstore pruning; 0 => 1h
	GenRetention    time.Duration // 0 => 30d

	Now func() time.Time // nil => time.Now
}

// CacheAside is the cache-aside store for one entity type. It is safe for
// concurrent use.
type CacheAside[T Record] struct {
	entity       string
	keys         keys
	store        Store[T]
	provider     pr.Provider
	locks        *LockCoordinator
	codec        c.Codec[T]
	differ       Differ[T]
	gen          gen.GenStore
	log          Logger
	hooks        Hooks
	ttl          time.Duration
	missingTTL   time.Duration
	cacheMissing bool
	now          func() time.Time
	sem          *semaphore.Weighted
	closed       atomic.Bool
}

func New[T Record](opts Options[T]) (*CacheAside[T], error) {
	switch {
	case opts.Namespace == "":
		return nil, errors.New("castore: namespace is required")
	case opts.EntityKey == "":
		return nil, errors.New("castore: entity key is required")
	case opts.Store == nil:
		return nil, errors.New("castore: store is required")
	case opts.Provider == nil:
		return nil, errors.New("castore: provider is required")
	}

	ca := &CacheAside[T]{
		entity:       opts.EntityKey,
		keys:         newKeys(opts.Namespace, opts.EntityKey),
		store:        opts.Store,
		provider:     opts.Provider,
		cacheMissing: opts.CacheMissing,
	}

	// defaults
	ca.log = coalesce[Logger](opts.Logger, NopLogger{})
	ca.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	ca.ttl = coalesce(opts.DefaultTTL, defaultTTL)
	ca.missingTTL = coalesce(opts.MissingTTL, defaultMissingTTL)
	ca.sem = semaphore.NewWeighted(int64(coalesce(opts.Concurrency, defaultConcurrency)))

	if opts.Codec != nil {
		ca.codec = opts.Codec
	} else {
		ca.codec = c.JSON[T]{}
	}
	if opts.Differ != nil {
		ca.differ = opts.Differ
	} else {
		ca.differ = FieldDiffer[T]{}
	}
	if opts.Now != nil {
		ca.now = opts.Now
	} else {
		ca.now = time.Now
	}
	locker := opts.Locker
	if locker == nil {
		if l, ok := opts.Provider.(pr.Locker); ok {
			locker = l
		} else {
			locker = memlock.New()
		}
	}
	_, local := locker.(*memlock.Locker)

	switch rp, isRedis := opts.Provider.(*rprov.Redis); {
	case opts.GenStore != nil:
		ca.gen = opts.GenStore
	case isRedis:
		gs, err := gen.NewRedis(gen.RedisConfig{
			Client:    rp.Client(),
			Namespace: opts.Namespace,
			TTL:       coalesce(opts.GenRetention, defaultGenRetention),
		})
		if err != nil {
			return nil, err
		}
		ca.gen = gs
	case !local:
		return nil, errors.New("castore: GenStore is required with a shared Locker")
	default:
		ca.gen = gen.NewLocal(
			coalesce(opts.CleanupInterval, defaultSweep),
			coalesce(opts.GenRetention, defaultGenRetention),
		)
	}
	locks, err := NewLockCoordinator(locker, LockOptions{
		TTL:        opts.LockTTL,
		BackoffMin: opts.BackoffMin,
		BackoffMax: opts.BackoffMax,
		MaxWait:    opts.LockWait,
		Hooks:      ca.hooks,
		Logger:     ca.log,
	})
	if err != nil {
		return nil, err
	}
	ca.locks = locks
	return ca, nil
}
