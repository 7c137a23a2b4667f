package mq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler — функция обработки одного сообщения.
//
// Контракт подтверждения:
//   - nil — consumer подтверждает доставку (ack) после возврата;
//   - error — consumer возвращает сообщение в очередь (nack+requeue),
//     брокер доставит его повторно.
//
// Handler получает сырое тело: разбор и классификация нечитаемых
// сообщений — ответственность обработчика, а не транспорта.
type Handler func(ctx context.Context, d *Delivery) error

// Delivery — доставленное сообщение.
type Delivery struct {
	// Body — сырое тело сообщения.
	Body []byte

	// MessageID — идентификатор из свойств публикации, может быть пустым.
	MessageID string

	raw amqp.Delivery
}

// Consumer потребляет сообщения из одной очереди RabbitMQ.
//
// Сообщения обрабатываются строго по одному: prefetch ограничивает
// число неподтверждённых доставок, следующая приезжает только после
// ack/nack предыдущей.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue Queue

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — максимум неподтверждённых доставок. По умолчанию 1.
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger,
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start запускает потребление. Блокируется до отмены контекста.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	return c.consume(ctx)
}

// consume — основной цикл: подписка, обработка, пересоздание
// подписки после разрыва соединения.
func (c *Consumer) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to start consuming", "queue", c.queue, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				c.logger.Info("reconnected, restarting consumer", "queue", c.queue)
				continue
			}
		}

		c.logger.Info("consumer started", "queue", c.queue)

		if err := c.pump(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, waiting for reconnect", "queue", c.queue)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				continue
			}
		}
	}
}

// subscribe настраивает prefetch и подписывается на очередь.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNotConnected
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(c.queue), // queue
		"",              // consumer tag (auto-generated)
		false,           // auto-ack (подтверждаем вручную)
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// pump читает доставки и передаёт их обработчику по одной.
func (c *Consumer) pump(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.handleDelivery(ctx, raw)
		}
	}
}

// handleDelivery вызывает обработчик и применяет контракт подтверждения.
func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	d := &Delivery{
		Body:      raw.Body,
		MessageID: raw.MessageId,
		raw:       raw,
	}

	c.logger.Debug("received message",
		"queue", c.queue,
		"message_id", d.MessageID,
	)

	if err := c.handler(ctx, d); err != nil {
		c.logger.Error("handler failed, requeueing",
			"queue", c.queue,
			"message_id", d.MessageID,
			"error", err,
		)
		// Инфраструктурный сбой обработчика: сообщение вернётся
		// как redelivery, содержимое конверта не меняется
		if nerr := raw.Nack(false, true); nerr != nil {
			c.logger.Error("failed to nack message", "queue", c.queue, "error", nerr)
		}
		return
	}

	if aerr := raw.Ack(false); aerr != nil {
		c.logger.Error("failed to ack message", "queue", c.queue, "error", aerr)
	}
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}
