package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Задержки переподключения.
const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// Connection — обёртка над AMQP соединением с автоматическим reconnect.
//
// Особенности:
// - Автоматическое переподключение при разрыве с экспоненциальной задержкой
// - Потокобезопасный доступ к каналу
// - Graceful shutdown
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool

	done chan struct{}

	// Уведомления подписчиков о переподключении
	reconnectCh chan struct{}
}

// NewConnection устанавливает соединение с RabbitMQ.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Connection{
		url:         url,
		logger:      logger,
		done:        make(chan struct{}),
		reconnectCh: make(chan struct{}, 1),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	// Мониторинг соединения живёт до Close
	go c.watch()

	return c, nil
}

// connect устанавливает соединение и открывает канал.
func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch

	c.logger.Info("connected to RabbitMQ")
	return nil
}

// watch ждёт закрытия соединения и запускает переподключение.
func (c *Connection) watch() {
	for {
		c.mu.RLock()
		closed := c.closed
		conn := c.conn
		c.mu.RUnlock()

		if closed {
			return
		}
		if conn == nil {
			time.Sleep(reconnectBaseDelay)
			continue
		}

		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.done:
			return
		case err := <-notifyClose:
			if err != nil {
				c.logger.Warn("connection lost", "error", err)
			}
			if !c.redial() {
				return
			}
		}
	}
}

// redial переподключается с экспоненциальной задержкой.
// Возвращает false, если соединение было закрыто во время попыток.
func (c *Connection) redial() bool {
	delay := reconnectBaseDelay

	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		c.logger.Info("attempting to reconnect", "delay", delay)

		if err := c.connect(); err != nil {
			c.logger.Warn("reconnect failed", "error", err)
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}

		c.logger.Info("reconnected to RabbitMQ")

		// Не блокируемся, если подписчик ещё не вычитал прошлое уведомление
		select {
		case c.reconnectCh <- struct{}{}:
		default:
		}

		return true
	}
}

// Channel возвращает текущий AMQP канал.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// ReconnectNotify возвращает канал уведомлений о переподключении.
func (c *Connection) ReconnectNotify() <-chan struct{} {
	return c.reconnectCh
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// WithChannel выполняет fn с текущим каналом.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil {
		return ErrNotConnected
	}

	return fn(ch)
}

// Close закрывает соединение. Повторный вызов безопасен.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}

	c.logger.Info("connection closed")
	return nil
}
