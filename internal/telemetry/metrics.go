package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики контроллера масштабирования.
var (
	// ScalerBacklog — глубина очереди, увиденная последним тиком.
	ScalerBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conveyor_scaler_queue_backlog",
		Help: "Messages ready for delivery at the last controller tick.",
	})

	// ScalerDesiredReplicas — целевое число воркеров после применения границ.
	ScalerDesiredReplicas = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conveyor_scaler_desired_replicas",
		Help: "Desired worker count computed by the control law.",
	})

	// ScalerActualReplicas — число живых контейнеров с меткой владения.
	ScalerActualReplicas = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conveyor_scaler_actual_replicas",
		Help: "Live managed worker containers observed during reconciliation.",
	})

	// ScalerTicks — счётчик тиков по результату: ok либо skipped.
	ScalerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_scaler_ticks_total",
		Help: "Controller ticks by result.",
	}, []string{"result"})

	// ScalerContainersStarted — запущенные контроллером контейнеры.
	ScalerContainersStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_scaler_containers_started_total",
		Help: "Worker containers started by the controller.",
	})

	// ScalerContainersStopped — остановленные контроллером контейнеры.
	ScalerContainersStopped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_scaler_containers_stopped_total",
		Help: "Worker containers stopped by the controller.",
	})
)

// Метрики воркера.
var (
	// WorkerMessages — обработанные сообщения по исходу:
	// succeeded, retried, dead_lettered.
	WorkerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_worker_messages_total",
		Help: "Messages handled by the worker, by outcome.",
	}, []string{"outcome"})

	// WorkerAttemptSeconds — длительность одной попытки переноса.
	WorkerAttemptSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conveyor_worker_attempt_duration_seconds",
		Help:    "Duration of a single move attempt.",
		Buckets: prometheus.DefBuckets,
	})
)

// Метрики продюсера.
var (
	// ProducerPublished — опубликованные события.
	ProducerPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_producer_events_published_total",
		Help: "Work item events published by the producer.",
	})

	// ProducerSweeps — обходы контейнера по результату: ok либо failed.
	ProducerSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_producer_sweeps_total",
		Help: "Container sweeps by result.",
	}, []string{"result"})
)
