package genstore

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type localGen struct {
	gen     uint64
	touched time.Time
}

// Local keeps generations in-process. With a retention window it prunes
// counters that have not been bumped for that long; readers then see 0 and
// the affected entries self-heal on their next read.
type Local struct {
	gens *xsync.MapOf[string, localGen]

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

var _ GenStore = (*Local)(nil)

// NewLocal starts a pruning loop when both durations are positive.
func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{gens: xsync.NewMapOf[string, localGen]()}
	if cleanupInterval <= 0 || retention <= 0 {
		return s
	}
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(cleanupInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.Prune(retention)
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

func (s *Local) Snapshot(_ context.Context, k string) (uint64, error) {
	e, _ := s.gens.Load(k)
	return e.gen, nil
}

func (s *Local) Bump(_ context.Context, k string) (uint64, error) {
	now := time.Now()
	e, _ := s.gens.Compute(k, func(old localGen, _ bool) (localGen, bool) {
		return localGen{gen: old.gen + 1, touched: now}, false
	})
	return e.gen, nil
}

// Prune drops counters untouched for longer than retention.
func (s *Local) Prune(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)
	s.gens.Range(func(k string, e localGen) bool {
		if e.touched.Before(cutoff) {
			s.gens.Compute(k, func(cur localGen, loaded bool) (localGen, bool) {
				return cur, !loaded || cur.touched.Before(cutoff)
			})
		}
		return true
	})
}

func (s *Local) Close(context.Context) error {
	if s.stop != nil {
		s.once.Do(func() { close(s.stop) })
		s.wg.Wait()
	}
	return nil
}
