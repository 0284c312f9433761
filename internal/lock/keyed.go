package lock

import (
	"context"
	"sync"
	"time"
)

// KeyedMutex serializes callers per key inside one process. It satisfies the
// same WithLock shape as Locker; ttl is ignored.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// WithLock runs fn once no other caller holds key, or returns ctx.Err() if
// the context ends first.
func (m *KeyedMutex) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	s := m.acquire(key)
	defer m.release(key, s)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.ch }()
	return fn(ctx)
}

func (m *KeyedMutex) acquire(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots == nil {
		m.slots = make(map[string]*slot)
	}
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *KeyedMutex) release(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}
