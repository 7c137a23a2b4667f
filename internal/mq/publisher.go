package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/conveyor/internal/domain"
)

// Publisher публикует конверты и dead-letter записи в очереди RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish сериализует конверт и кладёт его в указанную очередь.
//
// Повторная публикация конверта с увеличенным RetryCount идёт через
// этот же метод в ту же очередь: retry для брокера неотличим от
// нового сообщения.
func (p *Publisher) Publish(ctx context.Context, queue Queue, env *domain.Envelope) error {
	return p.publishJSON(ctx, queue, env.TraceID, env)
}

// PublishDeadLetter кладёт терминальную запись в dead-letter очередь.
func (p *Publisher) PublishDeadLetter(ctx context.Context, queue Queue, rec *domain.DeadLetterRecord) error {
	return p.publishJSON(ctx, queue, rec.TraceID, rec)
}

// publishJSON публикует payload через default exchange:
// routing key совпадает с именем очереди.
func (p *Publisher) publishJSON(ctx context.Context, queue Queue, messageID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			"",            // default exchange
			string(queue), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    messageID,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", queue, err)
		}

		p.logger.Debug("published message",
			"queue", queue,
			"message_id", messageID,
		)

		return nil
	})
}
