package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/retry"

	"github.com/Juanes7222/AppNotify/internal/config"
)

const publishTimeout = 5 * time.Second

// OutcomeMessage reports a notification reaching a terminal status.
type OutcomeMessage struct {
	ID             uuid.UUID  `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	ContactID      uuid.UUID  `json:"contact_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Status         string     `json:"status"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	Error          string     `json:"error,omitempty"`
	Test           bool       `json:"test,omitempty"`
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// OutcomeQueue publishes delivery outcomes to a durable direct exchange.
type OutcomeQueue struct {
	ch         publishChannel
	exchange   string
	routingKey string
	strategy   retry.Strategy
}

// Connect dials RabbitMQ, retrying cfg.Retries times with cfg.Pause between attempts.
func Connect(cfg config.RabbitMQ) (*rabbitmq.Connection, error) {
	conn, err := rabbitmq.Connect(cfg.URL(), max(cfg.Retries, 1), cfg.Pause)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	return conn, nil
}

// NewOutcomeQueue declares the exchange, the outcome queue and its
// dead-letter queue on ch, and binds them.
func NewOutcomeQueue(ch *rabbitmq.Channel, cfg config.RabbitMQ, strategy retry.Strategy) (*OutcomeQueue, error) {
	exchange := rabbitmq.NewExchange(cfg.Exchange, amqp.ExchangeDirect)
	exchange.Durable = true
	if err := exchange.BindToChannel(ch); err != nil {
		return nil, fmt.Errorf("failed to bind to exchange: %w", err)
	}

	qm := rabbitmq.NewQueueManager(ch)

	if _, err := qm.DeclareQueue(cfg.DLQ, rabbitmq.QueueConfig{Durable: true}); err != nil {
		return nil, fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	mainQ, err := qm.DeclareQueue(cfg.Queue, rabbitmq.QueueConfig{
		Durable: true,
		Args:    deadLetterArgs(cfg.DLQ),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to declare outcome queue: %w", err)
	}

	if err := ch.QueueBind(mainQ.Name, cfg.RoutingKey, exchange.Name(), false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind the exchange to the outcome queue: %w", err)
	}

	return newOutcomeQueue(ch, cfg, strategy), nil
}

func newOutcomeQueue(ch publishChannel, cfg config.RabbitMQ, strategy retry.Strategy) *OutcomeQueue {
	if strategy.Attempts < 1 {
		strategy.Attempts = 1
	}

	return &OutcomeQueue{
		ch:         ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		strategy:   strategy,
	}
}

func deadLetterArgs(dlq string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlq,
	}
}

// Publish sends msg as a persistent JSON message, retrying with the queue's
// strategy. Each attempt is bounded by a five second deadline.
func (q *OutcomeQueue) Publish(ctx context.Context, msg OutcomeMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pub := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    msg.ID.String(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err = retry.Do(func() error {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		return q.ch.PublishWithContext(pubCtx, q.exchange, q.routingKey, false, false, pub)
	}, q.strategy)
	if err != nil {
		return fmt.Errorf("failed to publish outcome: %w", err)
	}

	return nil
}

// Close closes the underlying channel.
func (q *OutcomeQueue) Close() error {
	return q.ch.Close()
}
