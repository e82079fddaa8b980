package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// declareQueue makes sure the durable work queue exists.
func declareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}

// RabbitPublisher publishes persistent JSON messages to one queue through the
// default exchange. It is safe for concurrent use.
type RabbitPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	Queue string
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := declareQueue(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, Queue: queue}, nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishJSON encodes body and publishes it. Each message gets a fresh id so
// consumers can spot redeliveries in their logs.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         b,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		return amqp.ErrClosed
	}
	return p.ch.PublishWithContext(ctx, "", p.Queue, false, false, msg)
}

// RabbitConsumer owns the connection and channel of a queue worker.
type RabbitConsumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitConsumer declares queue and starts a manual-ack consumer with the
// given prefetch.
func NewRabbitConsumer(url, queue string, prefetch int) (*RabbitConsumer, <-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	rc := &RabbitConsumer{conn: conn}
	if rc.ch, err = conn.Channel(); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := rc.ch.Qos(prefetch, 0, false); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("qos: %w", err)
	}
	if err := declareQueue(rc.ch, queue); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := rc.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return rc, msgs, nil
}

// Close stops delivery; the deliveries channel is closed once in-flight
// messages are drained.
func (rc *RabbitConsumer) Close() {
	if rc == nil {
		return
	}
	if rc.ch != nil {
		_ = rc.ch.Close()
	}
	if rc.conn != nil {
		_ = rc.conn.Close()
	}
}
