// Package broker forwards notification events to a RabbitMQ queue so other
// services (mail, push) can consume them.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/wecare/escalas-backend/internal/domain/notification"
)

const DefaultQueue = "notifications"

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn    *amqp.Connection
	ch      channel
	queue   string
	timeout time.Duration
	mu      sync.Mutex
}

// Dial connects to url and declares a durable queue.
func Dial(url, queue string, publishTimeout time.Duration) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	p := newPublisher(ch, queue, publishTimeout)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, queue string, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{ch: ch, queue: queue, timeout: timeout}
}

// Publish writes e as a persistent JSON notification frame.
func (p *Publisher) Publish(ctx context.Context, e notification.Event) error {
	wire := notification.ToWire(e)
	body, err := json.Marshal(notification.Frame{
		Type:         notification.FrameNotification,
		Notification: &wire,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishers
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Type:         string(e.Kind),
			Timestamp:    e.CreatedAt,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish notification %s: %w", e.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.ch != nil {
		firstErr = p.ch.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
