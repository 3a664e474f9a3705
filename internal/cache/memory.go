package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

type memory struct {
	mu          sync.Mutex
	cache       *lru.Cache
	generations map[string]uint64
	ttl         time.Duration
	now         func() time.Time
}

type entry struct {
	value    []byte
	expireAt time.Time
}

// NewMemory returns an in-process LRU Cache holding at most size entries.
// A zero ttl keeps the entries until they are evicted or flushed.
func NewMemory(size int, ttl time.Duration) (Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "could not create lru cache")
	}

	return &memory{
		cache:       c,
		generations: map[string]uint64{},
		ttl:         ttl,
		now:         time.Now,
	}, nil
}

func (m *memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}

	e := v.(entry)
	if !e.expireAt.IsZero() && m.now().After(e.expireAt) {
		m.cache.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *memory) Set(_ context.Context, key string, value []byte) error {
	e := entry{value: value}
	if m.ttl > 0 {
		e.expireAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Add(key, e)
	return nil
}

func (m *memory) Flush(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generations[namespace]++

	prefix := namespace + ":"
	for _, k := range m.cache.Keys() {
		if key, ok := k.(string); ok && strings.HasPrefix(key, prefix) {
			m.cache.Remove(k)
		}
	}
	return nil
}

func (m *memory) Generation(_ context.Context, namespace string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.generations[namespace], nil
}
