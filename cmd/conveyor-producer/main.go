// Conveyor Producer — источник событий конвейера.
//
// Producer:
//   - По расписанию обходит рабочий контейнер хранилища
//   - На каждый блоб вне processed/ публикует событие в RabbitMQ
//   - Не ведёт учёт опубликованного: дубликаты гасятся идемпотентным
//     переносом на стороне воркера
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
	"github.com/shaiso/conveyor/internal/producer"
	"github.com/shaiso/conveyor/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-producer")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadProducer()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// RabbitMQ
	conn, err := mq.NewConnection(cfg.Broker.URL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("RabbitMQ connected")

	// Создаём топологию: продюсеру нужна только рабочая очередь
	queue := mq.Queue(cfg.Broker.Queue)
	if err := mq.SetupTopology(ctx, conn, queue); err != nil {
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

	// Создаём producer: нечитаемое расписание фатально
	prod, err := producer.New(producer.Config{
		Lister:    store,
		Publisher: mq.NewPublisher(conn, logger),
		Queue:     queue,
		Container: cfg.Store.Container,
		Schedule:  cfg.SweepSchedule,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("invalid sweep schedule", "error", err)
		os.Exit(1)
	}

	// Запускаем producer
	if err := prod.Start(ctx); err != nil {
		logger.Error("failed to start producer", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("PRODUCER_PORT"); v != "" {
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

	// Останавливаем producer
	prod.Stop()
	logger.Info("conveyor-producer stopped")
}
