package session

import (
	"context"
	"sync"
)

// keyedMutex serializes work per key in arrival order. Entries exist only
// while someone holds or waits for the key.
type keyedMutex struct {
	mu     sync.Mutex
	queues map[string]*keyQueue
}

type keyQueue struct {
	held    bool
	refs    int
	waiters []chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{queues: make(map[string]*keyQueue)}
}

// Lock blocks until key is free or ctx is done. The returned func releases
// the key and must be called exactly once.
func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	q, ok := k.queues[key]
	if !ok {
		q = &keyQueue{}
		k.queues[key] = q
	}
	q.refs++

	if !q.held {
		q.held = true
		k.mu.Unlock()
		return k.unlocker(key, q), nil
	}

	turn := make(chan struct{})
	q.waiters = append(q.waiters, turn)
	k.mu.Unlock()

	select {
	case <-turn:
		return k.unlocker(key, q), nil
	case <-ctx.Done():
	}

	k.mu.Lock()
	for i, w := range q.waiters {
		if w == turn {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			q.refs--
			k.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	k.mu.Unlock()

	// ownership was handed over while we were giving up
	k.unlocker(key, q)()
	return nil, ctx.Err()
}

func (k *keyedMutex) unlocker(key string, q *keyQueue) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Lock()
			defer k.mu.Unlock()

			q.refs--
			if len(q.waiters) > 0 {
				next := q.waiters[0]
				q.waiters = q.waiters[1:]
				close(next)
				return
			}

			q.held = false
			if q.refs == 0 {
				delete(k.queues, key)
			}
		})
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.queues)
}
