package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue — тип для имени очереди.
type Queue string

// Канонические имена очередей.
const (
	// QueueEvents — рабочая очередь событий о блобах.
	QueueEvents Queue = "blob.events"

	// QueueDeadLetter — очередь терминальных записей.
	QueueDeadLetter Queue = "blob.error"
)

// SetupTopology объявляет очереди системы. Вызов идемпотентен:
// повторное объявление существующей очереди с теми же параметрами
// безвредно, поэтому топологию поднимает каждый сервис при старте.
//
// Обе очереди durable и висят на default exchange — маршрутизация
// по имени очереди. DLX брокера не используется: dead-letter поток
// это обычная публикация воркера в QueueDeadLetter, потому что
// счётчик повторов должен ехать в теле сообщения, а не в заголовках
// redelivery.
func SetupTopology(ctx context.Context, conn *Connection, queues ...Queue) error {
	if len(queues) == 0 {
		queues = []Queue{QueueEvents, QueueDeadLetter}
	}

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, q := range queues {
			if _, err := ch.QueueDeclare(
				string(q), // name
				true,      // durable — очередь переживёт рестарт брокера
				false,     // auto-delete
				false,     // exclusive
				false,     // no-wait
				nil,       // args
			); err != nil {
				return fmt.Errorf("declare queue %s: %w", q, err)
			}
		}
		return nil
	})
}
