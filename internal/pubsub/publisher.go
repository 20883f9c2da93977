package pubsub

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher hands a raw webhook body to the processing side.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

type rmqPublisher struct {
	conn       *amqp091.Connection
	exchange   string
	routingKey string
	log        *slog.Logger
}

func NewPublisher(conn *amqp091.Connection, exchange, routingKey string, logger *slog.Logger) (Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		return nil, err
	}

	return &rmqPublisher{
		conn:       conn,
		exchange:   exchange,
		routingKey: routingKey,
		log:        logger,
	}, nil
}

func (r *rmqPublisher) Publish(ctx context.Context, body []byte) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	msgID := uuid.NewString()
	err = ch.PublishWithContext(
		ctx, r.exchange, r.routingKey, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msgID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err == nil {
		r.log.Debug("published", slog.String("id", msgID), slog.String("key", r.routingKey))
	}
	return err
}

func (r *rmqPublisher) Close() error {
	return r.conn.Close()
}
