package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDeliveryClosed means the broker closed the consumer's delivery channel,
// usually because the connection or channel was lost.
var ErrDeliveryClosed = errors.New("rabbitmq delivery channel closed")

type RabbitMQ struct {
	uri string

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

func NewRabbitMQ(uri string) (*RabbitMQ, error) {
	r := &RabbitMQ{uri: uri}
	if err := r.dial(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) dial() error {
	conn, err := amqp.Dial(r.uri)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	r.conn = conn
	r.channel = ch
	return nil
}

// Reconnect replaces a lost connection. It is a no-op while the current
// connection and channel are still open.
func (r *RabbitMQ) Reconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return amqp.ErrClosed
	}
	if r.conn != nil && !r.conn.IsClosed() && r.channel != nil && !r.channel.IsClosed() {
		return nil
	}

	if r.conn != nil {
		_ = r.conn.Close()
	}
	return r.dial()
}

func (r *RabbitMQ) ch() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Close may be called more than once.
func (r *RabbitMQ) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

// DeclareFanout declares a durable fanout exchange.
func (r *RabbitMQ) DeclareFanout(exchange string) error {
	return r.ch().ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
}

func (r *RabbitMQ) Publish(ctx context.Context, exchange string, body []byte) error {
	return r.ch().PublishWithContext(ctx,
		exchange, // exchange
		"",       // routing key, ignored by fanout
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Body:         body,
		},
	)
}

// ConsumeFanout binds a server-named exclusive queue to exchange and feeds
// every delivery to handler until ctx is done. A closed delivery channel is
// reported as ErrDeliveryClosed.
func (r *RabbitMQ) ConsumeFanout(ctx context.Context, exchange string, handler func(body []byte)) error {
	ch := r.ch()

	q, err := ch.QueueDeclare(
		"",    // name, server generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to %s: %w", exchange, err)
	}

	msgs, err := ch.ConsumeWithContext(ctx,
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrDeliveryClosed
			}
			handler(msg.Body)
		}
	}
}
