// Conveyor Worker — обработчик событий о блобах.
//
// Worker:
//   - Читает события из RabbitMQ строго по одному (prefetch 1)
//   - Переносит блоб в processed/ идемпотентной операцией
//   - Повторяет transient-сбои переопубликацией с exponential backoff
//   - Исчерпанные и перманентные сбои уводит в dead-letter очередь
//
// Workers масштабируются горизонтально: их количеством управляет
// conveyor-scaler.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/conveyor/internal/blob"
	"github.com/shaiso/conveyor/internal/config"
	"github.com/shaiso/conveyor/internal/mq"
	"github.com/shaiso/conveyor/internal/telemetry"
	"github.com/shaiso/conveyor/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadWorker()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// RabbitMQ: воркеру без брокера делать нечего
	conn, err := mq.NewConnection(cfg.Broker.URL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("RabbitMQ connected")

	// Создаём топологию
	queue := mq.Queue(cfg.Broker.Queue)
	deadLetter := mq.Queue(cfg.Broker.DeadLetterQueue)
	if err := mq.SetupTopology(ctx, conn, queue, deadLetter); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// Блоб-хранилище
	store, err := blob.NewStore(blob.Config{
		ConnectionString: cfg.Store.ConnectionString,
		Container:        cfg.Store.Container,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("failed to create storage client", "error", err)
		os.Exit(1)
	}

	publisher := mq.NewPublisher(conn, logger)

	// Создаём worker
	w := worker.New(worker.Config{
		Mover:           store,
		Publisher:       publisher,
		Conn:            conn,
		Queue:           queue,
		DeadLetterQueue: deadLetter,
		MaxRetries:      cfg.MaxRetries,
		BackoffBase:     cfg.BackoffBase,
		BackoffCap:      cfg.BackoffCap,
		Logger:          logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker: текущее сообщение дорабатывается
	w.Stop()
	logger.Info("conveyor-worker stopped")
}
