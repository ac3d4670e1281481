package castore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/castore/pagedsql"
	pr "github.com/unkn0wn-root/castore/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu   sync.Mutex
	m    map[string]memEntry
	sets atomic.Int64
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.mu.Lock()
	p.m[key] = memEntry{v: value, exp: exp}
	p.mu.Unlock()
	p.sets.Add(1)
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	_, ok, _ := p.Get(context.Background(), key)
	return ok
}

func (p *memProvider) put(key string, b []byte) {
	p.mu.Lock()
	p.m[key] = memEntry{v: b}
	p.mu.Unlock()
}

type user struct {
	Model
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

func cloneUser(u *user) *user {
	c := *u
	return &c
}

// memStore is a Store[*user] with a unique Email index.
type memStore struct {
	mu      sync.Mutex
	rows    map[int64]*user
	nextID  int64
	delay   time.Duration
	delays  map[int64]time.Duration
	patches []Patch[*user]

	selects atomic.Int64
	inserts atomic.Int64
	updates atomic.Int64
	pages   atomic.Int64
}

var _ Store[*user] = (*memStore)(nil)

func newMemStore(rows ...*user) *memStore {
	s := &memStore{rows: make(map[int64]*user), delays: make(map[int64]time.Duration)}
	for _, r := range rows {
		s.rows[r.ID] = cloneUser(r)
		if r.ID > s.nextID {
			s.nextID = r.ID
		}
	}
	return s
}

func (s *memStore) row(id int64) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	return cloneUser(u), true
}

func (s *memStore) SelectByID(ctx context.Context, id int64) (*user, error) {
	s.selects.Add(1)
	s.mu.Lock()
	d := s.delay
	if dd, ok := s.delays[id]; ok {
		d = dd
	}
	s.mu.Unlock()
	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	u, ok := s.row(id)
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *memStore) Insert(_ context.Context, rec *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Email != "" && r.Email == rec.Email {
			return fmt.Errorf("UNIQUE constraint failed: user.email: %w", ErrDuplicate)
		}
	}
	s.inserts.Add(1)
	s.nextID++
	rec.ID = s.nextID
	s.rows[rec.ID] = cloneUser(rec)
	return nil
}

func (s *memStore) UpdateByID(_ context.Context, p Patch[*user]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[p.ID]
	if !ok {
		return ErrNotFound
	}
	for _, r := range s.rows {
		if r.ID != p.ID && r.Email != "" && r.Email == p.Record.Email && contains(p.Fields, "Email") {
			return &dupErr{}
		}
	}
	s.updates.Add(1)
	s.patches = append(s.patches, p)
	dst := reflect.ValueOf(cur).Elem()
	src := reflect.ValueOf(p.Record).Elem()
	for _, f := range p.Fields {
		dst.FieldByName(f).Set(src.FieldByName(f))
	}
	return nil
}

func (s *memStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *memStore) SelectList(_ context.Context, filters []pagedsql.FilterRule) ([]*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*user
	for id := int64(1); id <= s.nextID; id++ {
		r, ok := s.rows[id]
		if !ok {
			continue
		}
		match := true
		for _, f := range filters {
			if f.Key == "name" && f.Active() && r.Name != f.Value {
				match = false
			}
		}
		if match {
			out = append(out, cloneUser(r))
		}
	}
	return out, nil
}

func (s *memStore) QueryPagedList(_ context.Context, p pagedsql.PagedQueryParam) ([]map[string]any, error) {
	s.pages.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for id := int64(1); id <= s.nextID && len(out) < p.Query.PageSize; id++ {
		if r, ok := s.rows[id]; ok {
			out = append(out, map[string]any{"id": r.ID, "name": r.Name})
		}
	}
	return out, nil
}

func (s *memStore) QueryTotalCount(context.Context, pagedsql.PagedQueryParam) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

func (s *memStore) lastPatch() Patch[*user] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patches[len(s.patches)-1]
}

type dupErr struct{}

func (*dupErr) Error() string        { return "duplicate key value violates unique constraint" }
func (*dupErr) Is(target error) bool { return target == ErrDuplicate }

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// recHooks records hook calls.
type recHooks struct {
	NopHooks
	mu        sync.Mutex
	heals     []string
	contended atomic.Int64
	timeouts  atomic.Int64
	released  atomic.Int64
}

func (h *recHooks) SelfHeal(_ string, reason string) {
	h.mu.Lock()
	h.heals = append(h.heals, reason)
	h.mu.Unlock()
}
func (h *recHooks) LockContended(string, int)         { h.contended.Add(1) }
func (h *recHooks) LockTimeout(string, time.Duration) { h.timeouts.Add(1) }
func (h *recHooks) LockReleaseFailed(string, error)   { h.released.Add(1) }

func (h *recHooks) healReasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.heals...)
}
