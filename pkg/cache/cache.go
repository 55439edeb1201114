// Package cache stores answered distance queries.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"transit_router/pkg/tnr"
)

// Cache maps an (s, t) node pair to a distance.
type Cache interface {
	Get(ctx context.Context, s, t uint32) (d tnr.Distance, ok bool, err error)
	Set(ctx context.Context, s, t uint32, d tnr.Distance) error
	Close() error
}

const unreachableValue = "inf"

func encodeDistance(d tnr.Distance) string {
	v, ok := d.Value()
	if !ok {
		return unreachableValue
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func decodeDistance(s string) (tnr.Distance, error) {
	if s == unreachableValue {
		return tnr.Unreachable, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return tnr.Unreachable, fmt.Errorf("decode cached distance %q: %w", s, err)
	}
	return tnr.Finite(v), nil
}

type pairKey struct{ s, t uint32 }

type memEntry struct {
	d       tnr.Distance
	expires time.Time // zero: never
}

// Memory is a bounded in-process cache. When full, the oldest insertion
// is evicted.
type Memory struct {
	mu      sync.Mutex
	size    int
	ttl     time.Duration
	entries map[pairKey]memEntry
	order   []pairKey // insertion ring
	next    int
	now     func() time.Time
}

// NewMemory creates a cache holding at most size entries for ttl each.
// A zero ttl keeps entries until evicted.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{
		size:    max(size, 1),
		ttl:     ttl,
		entries: make(map[pairKey]memEntry, size),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, s, t uint32) (tnr.Distance, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[pairKey{s, t}]
	if !ok || (!e.expires.IsZero() && m.now().After(e.expires)) {
		return tnr.Unreachable, false, nil
	}
	return e.d, true, nil
}

func (m *Memory) Set(_ context.Context, s, t uint32, d tnr.Distance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := pairKey{s, t}
	e := memEntry{d: d}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	if _, exists := m.entries[k]; exists {
		m.entries[k] = e
		return nil
	}

	if len(m.order) < m.size {
		m.order = append(m.order, k)
	} else {
		delete(m.entries, m.order[m.next])
		m.order[m.next] = k
		m.next = (m.next + 1) % m.size
	}
	m.entries[k] = e
	return nil
}

// Len returns the number of stored entries, including expired ones.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
