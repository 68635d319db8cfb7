package agent

import (
	"context"
	"sync"
	"time"
)

type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
}

type cacheEntry[S any] struct {
	val     S
	expires time.Time
}

// MemoryCache expires entries ttl after they were set. Expired entries are
// swept on every access; there is no background timer. A non-positive ttl
// keeps entries forever.
type MemoryCache[S any] struct {
	mu  sync.Mutex
	m   map[string]cacheEntry[S]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryCache[S any](ttl time.Duration, now func() time.Time) *MemoryCache[S] {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache[S]{m: map[string]cacheEntry[S]{}, ttl: ttl, now: now}
}

func (m *MemoryCache[S]) sweep(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for k, e := range m.m {
		if !now.Before(e.expires) {
			delete(m.m, k)
		}
	}
}

func (m *MemoryCache[S]) Set(_ context.Context, key string, val S) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	m.m[key] = cacheEntry[S]{val: val, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemoryCache[S]) Get(_ context.Context, key string) (S, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now())
	e, ok := m.m[key]
	return e.val, ok, nil
}

func (m *MemoryCache[S]) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now())
	return len(m.m)
}
