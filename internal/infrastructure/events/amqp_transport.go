package events

import (
	"context"

	"github.com/hilthontt/spinwheel/internal/infrastructure/messaging"
)

// AMQPTransport replicates over a RabbitMQ fanout exchange; every instance
// consumes through its own exclusive queue.
type AMQPTransport struct {
	rabbitmq *messaging.RabbitMQ
	exchange string
}

func NewAMQPTransport(rabbitmq *messaging.RabbitMQ, exchange string) (*AMQPTransport, error) {
	if err := rabbitmq.DeclareFanout(exchange); err != nil {
		return nil, err
	}
	return &AMQPTransport{
		rabbitmq: rabbitmq,
		exchange: exchange,
	}, nil
}

func (t *AMQPTransport) Publish(ctx context.Context, payload []byte) error {
	return t.rabbitmq.Publish(ctx, t.exchange, payload)
}

// Subscribe redials a lost connection and redeclares the exchange before
// consuming, so the bus can simply call it again after a failure.
func (t *AMQPTransport) Subscribe(ctx context.Context, handler func(payload []byte)) error {
	if err := t.rabbitmq.Reconnect(); err != nil {
		return err
	}
	if err := t.rabbitmq.DeclareFanout(t.exchange); err != nil {
		return err
	}
	return t.rabbitmq.ConsumeFanout(ctx, t.exchange, handler)
}

// Close owns the RabbitMQ connection and closes it.
func (t *AMQPTransport) Close() error {
	t.rabbitmq.Close()
	return nil
}
