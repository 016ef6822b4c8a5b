package ratelimiter

import (
	"context"
	"time"
)

// Counter increments a windowed counter. The expiry is applied only when the
// key is first created so the window never slides.
type Counter interface {
	Incr(ctx context.Context, key string, expiration time.Duration) (int64, error)
	Close() error
}
