// Package cache holds the in-process caches used on the read path.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a string-keyed cache of T.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps expired entries from registered caches.
type Manager struct {
	caches []Cleaner
	done   chan struct{}
	cancel context.CancelFunc
}

func NewManager() *Manager {
	return &Manager{}
}

// Register adds a cache. Call before Start.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Start sweeps every interval until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.run(ctx, interval)
}

func (m *Manager) run(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "component", "cache", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep cleans every registered cache once and returns the total removed.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the sweeper and waits for it to exit.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}
