package ratelimiter

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	ScopeMessage       = "message"
	ScopeCreateSession = "create_session"
	ScopeHTTP          = "http"
)

type Rule struct {
	Limit  int
	Window time.Duration
}

type Decision struct {
	Allowed    bool
	Count      int64
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a fixed-window limiter keyed by scope, source and window number.
type Limiter struct {
	counter         Counter
	sourceHeaderKey string
	now             func() time.Time
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func WithSourceHeader(header string) Option {
	return func(l *Limiter) {
		l.sourceHeaderKey = header
	}
}

func New(counter Counter, opts ...Option) *Limiter {
	l := &Limiter{
		counter: counter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func windowSeconds(window time.Duration) int64 {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Key builds ratelimit:{scope}:{source}:{windowID} where windowID = unix/windowSeconds.
func Key(scope, source string, window time.Duration, now time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, source, now.Unix()/windowSeconds(window))
}

// Allow counts one request for source in scope and rejects it once the
// window count exceeds the rule's limit.
func (l *Limiter) Allow(ctx context.Context, scope, source string, rule Rule) (Decision, error) {
	now := l.now()
	secs := windowSeconds(rule.Window)
	window := time.Duration(secs) * time.Second

	count, err := l.counter.Incr(ctx, Key(scope, source, window, now), window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit counter: %w", err)
	}

	d := Decision{
		Allowed: count <= int64(rule.Limit),
		Count:   count,
	}
	if d.Allowed {
		d.Remaining = rule.Limit - int(count)
	} else {
		next := (now.Unix()/secs + 1) * secs
		d.RetryAfter = time.Unix(next, 0).Sub(now)
	}

	return d, nil
}

// GetSourceKey identifies the caller: the configured header first, then the peer address.
func (l *Limiter) GetSourceKey(r *http.Request) string {
	if l.sourceHeaderKey != "" {
		if v := r.Header.Get(l.sourceHeaderKey); v != "" {
			return strings.TrimSpace(strings.Split(v, ",")[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (l *Limiter) Close() error {
	return l.counter.Close()
}
