package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/conveyor/internal/domain"
	"github.com/shaiso/conveyor/internal/mq"
)

// Default configuration values.
const (
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
	defaultBackoffCap  = 30 * time.Second
)

// Mover — перенос блоба в хранилище.
type Mover interface {
	// Move переносит src в dest. Перманентные ошибки различимы
	// через blob.IsPermanent, остальные считаются transient.
	Move(ctx context.Context, src, dest string) error
}

// EnvelopePublisher — публикация конвертов и dead-letter записей.
type EnvelopePublisher interface {
	Publish(ctx context.Context, queue mq.Queue, env *domain.Envelope) error
	PublishDeadLetter(ctx context.Context, queue mq.Queue, rec *domain.DeadLetterRecord) error
}

// Worker обрабатывает события о блобах, строго по одному.
//
// Worker — stateless компонент: вся информация о ходе обработки
// сообщения (счётчик повторов) едет в самом конверте. Экземпляры
// масштабируются горизонтально, одну очередь читают все сразу.
//
// Машина состояний одного сообщения:
//
//	Received → Attempting → Succeeded        (ack)
//	                      → RetryScheduled   (republish с count+1, затем ack)
//	                      → DeadLettered     (запись в dead-letter, затем ack)
//
// На одну доставку приходится ровно одна попытка переноса: повтор —
// это отдельная публикация и отдельная доставка, возможно другому
// экземпляру воркера.
type Worker struct {
	mover     Mover
	publisher EnvelopePublisher

	// MQ
	conn     *mq.Connection
	consumer *mq.Consumer

	// Configuration
	queue           mq.Queue
	deadLetterQueue mq.Queue
	maxRetries      int
	backoffBase     time.Duration
	backoffCap      time.Duration

	// processorID — идентификатор экземпляра в dead-letter записях.
	processorID string

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Mover — адаптер хранилища.
	Mover Mover

	// Publisher — публикация повторов и dead-letter записей.
	Publisher EnvelopePublisher

	// Conn — соединение с брокером.
	Conn *mq.Connection

	// Queue — рабочая очередь (default: mq.QueueEvents).
	Queue mq.Queue

	// DeadLetterQueue — очередь терминальных записей (default: mq.QueueDeadLetter).
	DeadLetterQueue mq.Queue

	// MaxRetries — потолок повторов для transient-ошибок. Ноль легален:
	// первый же transient-сбой уводит сообщение в dead-letter.
	// Отрицательное значение заменяется умолчанием 3.
	MaxRetries int

	// BackoffBase — пауза перед первым повтором (default: 1s).
	BackoffBase time.Duration

	// BackoffCap — потолок паузы (default: 30s).
	BackoffCap time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	queue := cfg.Queue
	if queue == "" {
		queue = mq.QueueEvents
	}

	deadLetter := cfg.DeadLetterQueue
	if deadLetter == "" {
		deadLetter = mq.QueueDeadLetter
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}

	backoffCap := cfg.BackoffCap
	if backoffCap < backoffBase {
		backoffCap = defaultBackoffCap
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		mover:           cfg.Mover,
		publisher:       cfg.Publisher,
		conn:            cfg.Conn,
		queue:           queue,
		deadLetterQueue: deadLetter,
		maxRetries:      maxRetries,
		backoffBase:     backoffBase,
		backoffCap:      backoffCap,
		processorID:     uuid.NewString(),
		logger:          logger,
	}
}

// ProcessorID возвращает идентификатор экземпляра.
func (w *Worker) ProcessorID() string {
	return w.processorID
}

// Start запускает Worker: подписывается на рабочую очередь
// с prefetch 1 — воркер держит не больше одного сообщения за раз.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"processor_id", w.processorID,
		"queue", w.queue,
		"max_retries", w.maxRetries,
	)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    w.queue,
		Handler:  w.handleDelivery,
		Prefetch: 1,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker. Сообщение, находящееся в обработке,
// дорабатывается: ожидание backoff при этом укорачивается, конверт
// уезжает обратно в очередь немедленно.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
