package events

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type RedisTransport struct {
	client  *redis.Client
	channel string
}

func NewRedisTransport(client *redis.Client, channel string) *RedisTransport {
	return &RedisTransport{
		client:  client,
		channel: channel,
	}
}

func (t *RedisTransport) Publish(ctx context.Context, payload []byte) error {
	return t.client.Publish(ctx, t.channel, payload).Err()
}

func (t *RedisTransport) Subscribe(ctx context.Context, handler func(payload []byte)) error {
	sub := t.client.Subscribe(ctx, t.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed before consuming
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return redis.ErrClosed
			}
			handler([]byte(msg.Payload))
		}
	}
}

// Close is a no-op; the client is shared and closed by its owner.
func (t *RedisTransport) Close() error {
	return nil
}
