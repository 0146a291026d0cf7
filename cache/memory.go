package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// DefaultSweepInterval is how often Set scans for expired entries.
const DefaultSweepInterval = time.Minute

// MemoryStore is a thread-safe, in-process Store. Expired entries are
// reported as misses on read and swept from Set once per sweep interval.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]memoryItem
	now        func() time.Time
	sweepEvery time.Duration
	lastSweep  time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces the time source used for expiry checks.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// WithSweepInterval sets the minimum time between expiry sweeps. A value
// of zero or less sweeps on every Set.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) { m.sweepEvery = d }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		items:      make(map[string]memoryItem),
		now:        time.Now,
		sweepEvery: DefaultSweepInterval,
	}
	for _, o := range opts {
		o(m)
	}
	m.lastSweep = m.now()
	return m
}

// Get implements Getter.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		m.mu.Lock()
		// re-check: a concurrent Set may have refreshed the entry
		if cur, ok := m.items[key]; ok && cur.expiresAt.Equal(item.expiresAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true, nil
}

// Set implements Setter.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := m.now()
	item := memoryItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	if now.Sub(m.lastSweep) >= m.sweepEvery {
		m.sweepLocked(now)
	}
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

// Purge implements Purger.
func (m *MemoryStore) Purge(_ context.Context) (int64, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(m.sweepLocked(now)), nil
}

func (m *MemoryStore) sweepLocked(now time.Time) int {
	n := 0
	for k, item := range m.items {
		if !item.expiresAt.IsZero() && !now.Before(item.expiresAt) {
			delete(m.items, k)
			n++
		}
	}
	m.lastSweep = now
	return n
}

// Delete implements Deleter.
func (m *MemoryStore) Delete(_ context.Context, keyOrPrefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if strings.HasPrefix(k, keyOrPrefix) {
			delete(m.items, k)
		}
	}
	return nil
}

// Len returns the number of stored entries, including expired ones that
// have not been swept yet.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
