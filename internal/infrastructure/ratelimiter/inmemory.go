package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type inMemoryEntry struct {
	value     int64
	expiresAt time.Time
}

// InMemory is a process-local Counter for single-instance deployments and tests.
type InMemory struct {
	cache     map[string]inMemoryEntry
	mu        sync.Mutex
	now       func() time.Time
	stopClean chan struct{}
	cleanOnce sync.Once
}

func NewInMemory() *InMemory {
	im := &InMemory{
		cache:     make(map[string]inMemoryEntry),
		now:       time.Now,
		stopClean: make(chan struct{}),
	}

	go im.cleanupExpired()

	return im
}

func (i *InMemory) Incr(_ context.Context, key string, expiration time.Duration) (int64, error) {
	now := i.now()

	i.mu.Lock()
	defer i.mu.Unlock()

	entry, ok := i.cache[key]
	if !ok || (!entry.expiresAt.IsZero() && !now.Before(entry.expiresAt)) {
		entry = inMemoryEntry{}
		if expiration > 0 {
			entry.expiresAt = now.Add(expiration)
		}
	}

	entry.value++
	i.cache[key] = entry

	return entry.value, nil
}

func (i *InMemory) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			i.removeExpired()
		case <-i.stopClean:
			return
		}
	}
}

func (i *InMemory) removeExpired() {
	now := i.now()

	i.mu.Lock()
	defer i.mu.Unlock()

	for key, entry := range i.cache {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(i.cache, key)
		}
	}
}

func (i *InMemory) Close() error {
	i.cleanOnce.Do(func() {
		close(i.stopClean)
	})
	return nil
}
