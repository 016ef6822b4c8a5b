package events

import "context"

// Transport moves encoded envelopes between instances.
type Transport interface {
	Publish(ctx context.Context, payload []byte) error
	// Subscribe blocks, calling handler for every payload, until ctx is done.
	// Any other return means the subscription was lost.
	Subscribe(ctx context.Context, handler func(payload []byte)) error
	Close() error
}
