package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"job-assistant/domain"
)

const (
	MatchCreatedEvent = "match.created"
	DefaultMatchQueue = "match_results"

	publishTimeout = 5 * time.Second
)

// MatchEvent is published after a match result has been stored.
type MatchEvent struct {
	Event  string                 `json:"event"`
	Result domain.MatchResultView `json:"result"`
}

func NewMatchEvent(result domain.MatchResult) MatchEvent {
	return MatchEvent{Event: MatchCreatedEvent, Result: result.View()}
}

// RabbitMQ publishes and consumes match events on a durable queue.
type RabbitMQ struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *zap.Logger
}

func NewRabbitMQ(url, queue string, logger *zap.Logger) (*RabbitMQ, error) {
	if queue == "" {
		queue = DefaultMatchQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	logger.Info("connected to rabbitmq", zap.String("queue", q.Name))
	return &RabbitMQ{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

// PublishMatch sends a match.created event. amqp channels are not safe for
// concurrent publishing, so calls are serialized.
func (r *RabbitMQ) PublishMatch(ctx context.Context, result domain.MatchResult) error {
	body, err := json.Marshal(NewMatchEvent(result))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         MatchCreatedEvent,
			Body:         body,
		},
	)
}

// ConsumeMatches delivers events to handler until ctx is done or the
// channel closes. Malformed messages are logged and skipped.
func (r *RabbitMQ) ConsumeMatches(ctx context.Context, handler func(MatchEvent)) error {
	msgs, err := r.channel.ConsumeWithContext(
		ctx,
		r.queue.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			var event MatchEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				r.logger.Warn("invalid match event", zap.Error(err))
				continue
			}
			handler(event)
		}
	}
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}
