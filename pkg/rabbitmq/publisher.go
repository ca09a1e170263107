package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"frame-compress/config"
	"frame-compress/dto"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"strings"
	"time"
)

const defaultExchange = "compression_exchange"

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch       Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return newPublisher(ch, cfg.ExchangeName, cfg.Kind)
}

func newPublisher(ch Channel, exchange, kind string) (*Publisher, error) {
	if exchange == "" {
		exchange = defaultExchange
	}
	if kind == "" {
		kind = amqp.ExchangeTopic
	}
	if err := ch.ExchangeDeclare(exchange, kind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

// RoutingKey is compression.<action>.<status>, e.g. compression.frame_compress.succeeded.
func RoutingKey(evt dto.OutcomeEvent) string {
	return "compression." + evt.Action.String() + "." + strings.ToLower(string(evt.Status))
}

func (p *Publisher) PublishOutcome(ctx context.Context, evt dto.OutcomeEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal outcome event: %w", err)
	}

	key := RoutingKey(evt)
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    evt.SessionID.String() + ":" + evt.Action.String(),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	zerolog.Ctx(ctx).Debug().Str("exchange", p.exchange).Str("routing_key", key).Msg("published outcome event")
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
