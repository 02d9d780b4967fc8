// Package cache keeps recently computed movie statistics.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

// StatsCache stores per-movie statistics. A miss returns (nil, nil).
type StatsCache interface {
	Get(ctx context.Context, movieID string) (*domain.MovieStats, error)
	Set(ctx context.Context, movieID string, stats domain.MovieStats) error
	Invalidate(ctx context.Context, movieID string) error
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*domain.MovieStats, error) { return nil, nil }
func (Nop) Set(context.Context, string, domain.MovieStats) error     { return nil }
func (Nop) Invalidate(context.Context, string) error                 { return nil }

type memoryEntry struct {
	stats     domain.MovieStats
	expiresAt time.Time
}

// Memory is a process-local StatsCache with per-entry expiry.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns an in-process cache. A non-positive ttl keeps entries until invalidated.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, movieID string) (*domain.MovieStats, error) {
	m.mu.RLock()
	entry, ok := m.entries[movieID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, movieID)
		m.mu.Unlock()
		return nil, nil
	}
	stats := entry.stats
	return &stats, nil
}

func (m *Memory) Set(_ context.Context, movieID string, stats domain.MovieStats) error {
	entry := memoryEntry{stats: stats}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[movieID] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, movieID string) error {
	m.mu.Lock()
	delete(m.entries, movieID)
	m.mu.Unlock()
	return nil
}
