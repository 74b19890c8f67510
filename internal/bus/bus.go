// Package bus implements the MessageBus (C5, spec.md §4.5): a durable
// RabbitMQ queue wrapper with manual ack/nack and an optional
// dead-letter sink, grounded on the amqp091-go dial/channel/consume shape
// used across the retrieval pack's worker examples.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Config mirrors spec.md §6 `rabbit`.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	Vhost    string
	Queue    string
	Prefetch int
	RetryMax int
	DLQ      string
}

func (c Config) url() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", c.User, c.Pass, c.Host, c.Port, c.Vhost)
}

func (c Config) queue() string {
	if c.Queue == "" {
		return "media.process"
	}
	return c.Queue
}

func (c Config) prefetch() int {
	if c.Prefetch <= 0 {
		return 10
	}
	return c.Prefetch
}

func (c Config) retryMax() int {
	if c.RetryMax <= 0 {
		return 5
	}
	return c.RetryMax
}

// ProcessJob is the primary queue payload (spec.md §4.5). CorrelationID
// threads a single identifier through the AMQP message, log lines, and the
// processAsset trace span so a delivery can be followed end to end.
type ProcessJob struct {
	AssetID       int64  `json:"assetId"`
	TempFilePath  string `json:"tempFilePath,omitempty"`
	CorrelationID string `json:"correlationId"`
}

// DeadLetter is the DLQ payload (spec.md §4.5).
type DeadLetter struct {
	AssetID   int64     `json:"assetId"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
	FailedAt  time.Time `json:"failedAt"`
}

// Bus owns one durable connection and channel pair to RabbitMQ.
type Bus struct {
	cfg  Config
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// New dials RabbitMQ, opens a channel, and declares the primary queue plus
// the DLQ (when configured). The connection is durable and lazily
// redialed on the first publish failure (spec.md §4.5 "retry once with
// reconnect").
func New(cfg Config) (*Bus, error) {
	b := &Bus{cfg: cfg}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bus) connect() error {
	conn, err := amqp.Dial(b.cfg.url())
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(b.cfg.prefetch(), 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	if _, err := ch.QueueDeclare(b.cfg.queue(), true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare queue %s: %w", b.cfg.queue(), err)
	}

	if b.cfg.DLQ != "" {
		if _, err := ch.QueueDeclare(b.cfg.DLQ, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("declare dlq %s: %w", b.cfg.DLQ, err)
		}
	}

	b.mu.Lock()
	b.conn, b.ch = conn, ch
	b.mu.Unlock()
	return nil
}

func (b *Bus) channel() *amqp.Channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ch
}

// Publish enqueues a ProcessJob onto the primary queue, persistent and
// JSON-encoded. A publish over a dead connection is retried exactly once
// after reconnecting (spec.md §4.5).
func (b *Bus) Publish(ctx context.Context, job ProcessJob) error {
	if job.CorrelationID == "" {
		job.CorrelationID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	err = b.publishBody(ctx, b.cfg.queue(), body, job.CorrelationID)
	if err != nil {
		if reconnErr := b.connect(); reconnErr != nil {
			return fmt.Errorf("publish job (reconnect failed: %v): %w", reconnErr, err)
		}
		if err = b.publishBody(ctx, b.cfg.queue(), body, job.CorrelationID); err != nil {
			return fmt.Errorf("publish job after reconnect: %w", err)
		}
	}
	return nil
}

// PublishDeadLetter enqueues a DeadLetter onto the configured DLQ. A bus
// with no DLQ configured silently drops dead letters (spec.md §4.5 — the
// DLQ is optional).
func (b *Bus) PublishDeadLetter(ctx context.Context, dl DeadLetter) error {
	if b.cfg.DLQ == "" {
		return nil
	}
	body, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("encode dead letter: %w", err)
	}
	if err := b.publishBody(ctx, b.cfg.DLQ, body, uuid.NewString()); err != nil {
		return fmt.Errorf("publish dead letter: %w", err)
	}
	return nil
}

func (b *Bus) publishBody(ctx context.Context, queue string, body []byte, correlationID string) error {
	ch := b.channel()
	if ch == nil {
		return fmt.Errorf("no open channel")
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: correlationID,
		Body:          body,
	})
}

// RetryMax exposes spec.md §6's `rabbit.retry_max` to callers deciding
// whether a failed delivery should be requeued or dead-lettered.
func (b *Bus) RetryMax() int { return b.cfg.retryMax() }

// Delivery wraps one consumed message along with its decoded job and the
// ack/nack/dead-letter controls the Worker (C8) uses to close it out.
type Delivery struct {
	Job      ProcessJob
	Attempts int
	raw      amqp.Delivery
}

func attemptCount(d amqp.Delivery) int {
	if d.Headers == nil {
		return 1
	}
	if v, ok := d.Headers["x-delivery-count"]; ok {
		switch n := v.(type) {
		case int32:
			return int(n) + 1
		case int64:
			return int(n) + 1
		}
	}
	return 1
}

// Ack acknowledges successful processing.
func (d Delivery) Ack() error { return d.raw.Ack(false) }

// Nack rejects the delivery. requeue controls whether RabbitMQ redelivers
// it or drops it (the caller is responsible for dead-lettering first when
// attempts have been exhausted, per spec.md §4.8).
func (d Delivery) Nack(requeue bool) error { return d.raw.Nack(false, requeue) }

// Consume starts a long-lived consumer on the primary queue. The returned
// channel is closed when ctx is cancelled or the underlying channel closes.
func (b *Bus) Consume(ctx context.Context) (<-chan Delivery, error) {
	ch := b.channel()
	if ch == nil {
		return nil, fmt.Errorf("no open channel")
	}

	raw, err := ch.Consume(b.cfg.queue(), "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", b.cfg.queue(), err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-raw:
				if !ok {
					return
				}
				var job ProcessJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					d.Nack(false, false)
					continue
				}
				select {
				case out <- Delivery{Job: job, Attempts: attemptCount(d), raw: d}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close tears down the channel and connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.ch != nil {
		if e := b.ch.Close(); e != nil {
			err = e
		}
	}
	if b.conn != nil {
		if e := b.conn.Close(); e != nil {
			err = e
		}
	}
	return err
}
