package producer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/conveyor/internal/domain"
	"github.com/shaiso/conveyor/internal/mq"
	"github.com/shaiso/conveyor/internal/telemetry"
)

// Default configuration values.
const (
	// DefaultSchedule — расписание обхода по умолчанию: раз в минуту.
	DefaultSchedule = "@every 60s"
)

// BlobLister перечисляет имена блобов контейнера.
type BlobLister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// EnvelopePublisher публикует конверты в очередь работ.
type EnvelopePublisher interface {
	Publish(ctx context.Context, queue mq.Queue, env *domain.Envelope) error
}

// Producer периодически обходит контейнер и публикует конверт на каждый
// ещё не обработанный блоб.
//
// Продюсер не помнит, что публиковал раньше: признак «обработано» — это
// положение блоба в контейнере, а не запись в памяти. Блоб, переживший
// неудачную публикацию или потерянное сообщение, просто попадёт в
// следующий обход. Дубликаты безопасны: перенос на стороне воркера
// идемпотентен.
type Producer struct {
	lister    BlobLister
	publisher EnvelopePublisher
	queue     mq.Queue
	container string
	schedule  cron.Schedule

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Producer.
type Config struct {
	// Lister — источник списка блобов.
	Lister BlobLister

	// Publisher — издатель конвертов.
	Publisher EnvelopePublisher

	// Queue — очередь работ (default: mq.QueueEvents).
	Queue mq.Queue

	// Container — имя обходимого контейнера, попадает в WorkItem.
	Container string

	// Schedule — выражение расписания (default: DefaultSchedule).
	Schedule string

	// Logger
	Logger *slog.Logger
}

// New создаёт Producer. Возвращает ошибку, если расписание не разбирается.
func New(cfg Config) (*Producer, error) {
	expr := cfg.Schedule
	if expr == "" {
		expr = DefaultSchedule
	}

	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}

	queue := cfg.Queue
	if queue == "" {
		queue = mq.QueueEvents
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Producer{
		lister:    cfg.Lister,
		publisher: cfg.Publisher,
		queue:     queue,
		container: cfg.Container,
		schedule:  schedule,
		logger:    logger,
	}, nil
}

// Start запускает цикл обхода.
func (p *Producer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancelFunc = cancel

	p.logger.Info("starting producer",
		"container", p.container,
		"queue", string(p.queue),
	)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sweepLoop(ctx)
	}()

	p.logger.Info("producer started")
	return nil
}

// Stop останавливает Producer.
func (p *Producer) Stop() {
	p.stoppedMu.Lock()
	p.stopped = true
	p.stoppedMu.Unlock()

	p.logger.Info("stopping producer...")

	if p.cancelFunc != nil {
		p.cancelFunc()
	}
	p.wg.Wait()

	p.logger.Info("producer stopped")
}

// IsStopped проверяет, остановлен ли Producer.
func (p *Producer) IsStopped() bool {
	p.stoppedMu.RLock()
	defer p.stoppedMu.RUnlock()
	return p.stopped
}

// sweepLoop — цикл обходов по расписанию.
func (p *Producer) sweepLoop(ctx context.Context) {
	// Первый обход сразу при старте: накопившиеся блобы уходят в
	// очередь без ожидания ближайшего срабатывания расписания
	p.runSweep(ctx)

	for {
		timer := time.NewTimer(time.Until(p.schedule.Next(time.Now())))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			p.runSweep(ctx)
		}
	}
}

// runSweep выполняет Sweep и учитывает результат в метриках.
func (p *Producer) runSweep(ctx context.Context) {
	published, err := p.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		telemetry.ProducerSweeps.WithLabelValues("failed").Inc()
		p.logger.Error("sweep failed", "error", err)
		return
	}

	telemetry.ProducerSweeps.WithLabelValues("ok").Inc()
	if published > 0 {
		p.logger.Info("sweep completed", "published", published)
	} else {
		p.logger.Debug("sweep completed, nothing to publish")
	}
}

// Sweep выполняет один обход контейнера: перечисляет блобы, пропускает
// уже обработанные и публикует конверт на каждый оставшийся.
// Возвращает число опубликованных конвертов.
//
// Ошибка публикации одного блоба не прерывает обход: блоб остаётся на
// месте и попадёт в следующий проход.
func (p *Producer) Sweep(ctx context.Context) (int, error) {
	names, err := p.lister.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}

	var published int
	for _, name := range names {
		if strings.HasPrefix(name, domain.ProcessedPrefix) {
			continue
		}

		env := domain.NewEnvelope(p.itemFor(name))
		if err := p.publisher.Publish(ctx, p.queue, env); err != nil {
			p.logger.Error("failed to publish work item",
				"blob", name,
				"trace_id", env.TraceID,
				"error", err,
			)
			continue
		}

		telemetry.ProducerPublished.Inc()
		published++
	}

	return published, nil
}

// itemFor собирает WorkItem для блоба name.
func (p *Producer) itemFor(name string) domain.WorkItem {
	dir, base := path.Split(name)
	return domain.WorkItem{
		Container: p.container,
		Path:      dir,
		Blob:      base,
		Dest:      domain.DestinationFor(name),
		Timestamp: time.Now().UTC(),
	}
}
