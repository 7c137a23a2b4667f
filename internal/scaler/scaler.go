package scaler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/conveyor/internal/domain"
	"github.com/shaiso/conveyor/internal/telemetry"
)

// Default configuration values.
const (
	defaultTickInterval = 30 * time.Second
	defaultStopGrace    = 30 * time.Second
	defaultMaxReplicas  = 10
	defaultWorkerImage  = "conveyor-worker:latest"
	defaultLabelValue   = "conveyor-scaler"
)

// Метки, которые контроллер вешает на свои контейнеры.
const (
	// LabelManagedBy — метка владения. Контроллер перечисляет,
	// останавливает и удаляет только контейнеры с этой меткой.
	LabelManagedBy = "managed-by"

	// LabelRole — роль контейнера в системе.
	LabelRole = "role"

	roleWorker = "worker"
)

// QueueMetrics — источник метрики очереди.
type QueueMetrics interface {
	// ReadyCount возвращает число сообщений, готовых к доставке.
	ReadyCount(ctx context.Context, queue string) (int, error)
}

// ContainerRuntime — операции над контейнерами воркеров.
type ContainerRuntime interface {
	ListByLabel(ctx context.Context, label string) ([]domain.ManagedContainer, error)
	Start(ctx context.Context, spec domain.ContainerSpec) (string, error)
	Stop(ctx context.Context, id string, grace time.Duration) error
	Remove(ctx context.Context, id string) error
}

// Controller держит число работающих воркеров пропорциональным глубине
// очереди, в пределах [MinReplicas, MaxReplicas].
//
// Контроллер сознательно не хранит состояние между тиками: и глубина
// очереди, и фактический набор контейнеров замеряются заново на каждом
// тике. Перезапущенный контроллер подхватывает существующие контейнеры
// по метке владения и продолжает с ними работать.
type Controller struct {
	metrics QueueMetrics
	runtime ContainerRuntime

	queue        string
	tickInterval time.Duration
	minReplicas  int
	maxReplicas  int
	workerImage  string
	labelValue   string
	network      string
	workerEnv    []string
	stopGrace    time.Duration

	// Последнее принятое решение, для статуса и тестов
	mu           sync.RWMutex
	lastDecision *domain.ScalingDecision

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Controller.
type Config struct {
	// Metrics — клиент метрики очереди.
	Metrics QueueMetrics

	// Runtime — клиент container runtime.
	Runtime ContainerRuntime

	// Queue — очередь, глубина которой управляет масштабом.
	Queue string

	// TickInterval — период тика (default: 30s).
	TickInterval time.Duration

	// MinReplicas — нижняя граница числа воркеров. Ноль легален:
	// пустая очередь гасит всех воркеров.
	MinReplicas int

	// MaxReplicas — верхняя граница (default: 10).
	MaxReplicas int

	// WorkerImage — образ контейнера воркера.
	WorkerImage string

	// LabelValue — значение метки владения.
	LabelValue string

	// Network — сеть запускаемых контейнеров.
	Network string

	// WorkerEnv — окружение запускаемых контейнеров.
	WorkerEnv []string

	// StopGrace — grace-период остановки (default: 30s).
	StopGrace time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Controller.
func New(cfg Config) *Controller {
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	maxReplicas := cfg.MaxReplicas
	if maxReplicas <= 0 {
		maxReplicas = defaultMaxReplicas
	}

	minReplicas := cfg.MinReplicas
	if minReplicas < 0 {
		minReplicas = 0
	}

	workerImage := cfg.WorkerImage
	if workerImage == "" {
		workerImage = defaultWorkerImage
	}

	labelValue := cfg.LabelValue
	if labelValue == "" {
		labelValue = defaultLabelValue
	}

	stopGrace := cfg.StopGrace
	if stopGrace <= 0 {
		stopGrace = defaultStopGrace
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		metrics:      cfg.Metrics,
		runtime:      cfg.Runtime,
		queue:        cfg.Queue,
		tickInterval: tickInterval,
		minReplicas:  minReplicas,
		maxReplicas:  maxReplicas,
		workerImage:  workerImage,
		labelValue:   labelValue,
		network:      cfg.Network,
		workerEnv:    cfg.WorkerEnv,
		stopGrace:    stopGrace,
		logger:       logger,
	}
}

// Start запускает цикл тиков.
func (c *Controller) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	c.logger.Info("starting scaling controller",
		"queue", c.queue,
		"tick_interval", c.tickInterval,
		"min_replicas", c.minReplicas,
		"max_replicas", c.maxReplicas,
		"worker_image", c.workerImage,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.tickLoop(ctx)
	}()

	c.logger.Info("scaling controller started")
	return nil
}

// Stop останавливает Controller. Запущенные воркеры остаются работать:
// их жизнью управляет следующий запуск контроллера.
func (c *Controller) Stop() {
	c.stoppedMu.Lock()
	c.stopped = true
	c.stoppedMu.Unlock()

	c.logger.Info("stopping scaling controller...")

	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()

	c.logger.Info("scaling controller stopped")
}

// IsStopped проверяет, остановлен ли Controller.
func (c *Controller) IsStopped() bool {
	c.stoppedMu.RLock()
	defer c.stoppedMu.RUnlock()
	return c.stopped
}

// tickLoop — цикл тиков с фиксированным интервалом.
func (c *Controller) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	// Первый тик сразу при старте: контроллер подхватывает
	// накопившийся backlog без ожидания целого интервала
	c.runTick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runTick(ctx)
		}
	}
}

// runTick выполняет Tick и учитывает результат в метриках.
func (c *Controller) runTick(ctx context.Context) {
	if err := c.Tick(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		// Тик пропущен целиком: без свежей метрики масштаб не трогаем,
		// текущие воркеры продолжают разгребать очередь
		telemetry.ScalerTicks.WithLabelValues("skipped").Inc()
		c.logger.Warn("tick skipped", "error", err)
		return
	}
	telemetry.ScalerTicks.WithLabelValues("ok").Inc()
}

// Tick выполняет один цикл контроллера: замер глубины очереди,
// вычисление целевого масштаба, приведение фактического набора
// контейнеров к целевому.
//
// Ошибка на любом шаге прерывает тик без частичных повторов —
// следующий тик начнёт с чистого замера.
func (c *Controller) Tick(ctx context.Context) error {
	backlog, err := c.metrics.ReadyCount(ctx, c.queue)
	if err != nil {
		return fmt.Errorf("read queue depth: %w", err)
	}

	decision := domain.ScalingDecision{
		Backlog: backlog,
		Desired: DesiredReplicas(backlog, c.minReplicas, c.maxReplicas),
		At:      time.Now(),
	}

	c.mu.Lock()
	c.lastDecision = &decision
	c.mu.Unlock()

	telemetry.ScalerBacklog.Set(float64(decision.Backlog))
	telemetry.ScalerDesiredReplicas.Set(float64(decision.Desired))

	c.logger.Debug("scaling decision",
		"backlog", decision.Backlog,
		"desired", decision.Desired,
	)

	if err := c.reconcile(ctx, decision.Desired); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	return nil
}

// LastDecision возвращает решение последнего успешно замерившего тика.
func (c *Controller) LastDecision() *domain.ScalingDecision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastDecision
}

// DesiredReplicas — пропорциональный закон управления с насыщением:
// clamp(backlog, min, max).
//
// Закон нарочно без памяти: одинаковый backlog всегда даёт одинаковый
// целевой масштаб, независимо от истории тиков.
func DesiredReplicas(backlog, minReplicas, maxReplicas int) int {
	if backlog < minReplicas {
		return minReplicas
	}
	if backlog > maxReplicas {
		return maxReplicas
	}
	return backlog
}
