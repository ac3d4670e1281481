package castore

import "time"

const (
	defaultTTL         = 10 * time.Minute
	defaultMissingTTL  = 30 * time.Second
	defaultLockTTL     = 10 * time.Second
	defaultBackoffMin  = 10 * time.Millisecond
	defaultBackoffMax  = 200 * time.Millisecond
	defaultConcurrency = 10

	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
