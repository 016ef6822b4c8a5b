package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/metrics"
)

// LocalDelivery is the part of the connection router the bus replays into.
type LocalDelivery interface {
	Broadcast(sessionID string, frame []byte, excludeMemberID string) int
	DisconnectMember(sessionID, memberID string, frame []byte) int
}

// Bus publishes envelopes tagged with this instance's identity and replays
// envelopes from other instances into the local router. It never persists
// and never republishes what it receives.
type Bus struct {
	origin    string
	transport Transport
	local     LocalDelivery
	logger    logging.Logger
	metrics   *metrics.Recorder

	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

const (
	// DefaultRetryDelay is the first wait before resubscribing after a lost subscription.
	DefaultRetryDelay = 500 * time.Millisecond
	// MaxRetryDelay caps the backoff between resubscribe attempts.
	MaxRetryDelay = 30 * time.Second

	// a subscription that lived this long resets the backoff
	stableSubscription = time.Minute
)

type BusOption func(*Bus)

func WithRetryDelay(initial, max time.Duration) BusOption {
	return func(b *Bus) {
		b.retryDelay = initial
		b.maxRetryDelay = max
	}
}

func NewBus(origin string, transport Transport, local LocalDelivery, logger logging.Logger, m *metrics.Recorder, opts ...BusOption) *Bus {
	b := &Bus{
		origin:        origin,
		transport:     transport,
		local:         local,
		logger:        logger,
		metrics:       m,
		retryDelay:    DefaultRetryDelay,
		maxRetryDelay: MaxRetryDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxRetryDelay < b.retryDelay {
		b.maxRetryDelay = b.retryDelay
	}
	return b
}

func (b *Bus) Origin() string {
	return b.origin
}

func (b *Bus) Publish(ctx context.Context, env Envelope) error {
	env.Origin = b.origin

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	if err := b.transport.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish envelope: %w", err)
	}

	b.metrics.Replication("published")
	return nil
}

// Run subscribes and blocks until ctx is cancelled. A lost subscription is
// logged and re-established with exponential backoff.
func (b *Bus) Run(ctx context.Context) error {
	delay := b.retryDelay

	for {
		b.logger.Info(logging.Replication, logging.Subscribe, "replication bus listening", map[logging.ExtraKey]any{
			logging.InstanceID: b.origin,
		})

		started := time.Now()
		err := b.transport.Subscribe(ctx, b.handle)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = fmt.Errorf("subscription ended")
		}
		if time.Since(started) >= stableSubscription {
			delay = b.retryDelay
		}

		b.metrics.Replication("resubscribed")
		b.logger.Error(logging.Replication, logging.Subscribe, "replication subscription lost, retrying", map[logging.ExtraKey]any{
			logging.InstanceID:   b.origin,
			logging.ErrorMessage: err.Error(),
			"retry_in":           delay.String(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		delay *= 2
		if delay > b.maxRetryDelay {
			delay = b.maxRetryDelay
		}
	}
}

func (b *Bus) handle(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		b.logger.Warn(logging.Replication, logging.Subscribe, "dropping malformed envelope", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	if env.Origin == b.origin {
		b.metrics.Replication("ignored")
		return
	}

	b.metrics.Replication("received")

	switch env.Kind {
	case KindBroadcast:
		b.local.Broadcast(env.SessionID, env.Message, env.ExcludeMemberID)
	case KindKick:
		b.local.DisconnectMember(env.SessionID, env.TargetMemberID, env.Message)
	default:
		b.logger.Warn(logging.Replication, logging.Subscribe, "unknown envelope kind", map[logging.ExtraKey]any{
			"kind": env.Kind,
		})
	}
}

func (b *Bus) Close() error {
	return b.transport.Close()
}
