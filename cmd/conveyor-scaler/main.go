// Conveyor Scaler — контроллер масштабирования воркеров.
//
// Scaler:
//   - Периодически замеряет глубину очереди через management API
//   - Вычисляет целевое число воркеров: clamp(backlog, min, max)
//   - Приводит набор Docker-контейнеров воркеров к целевому
//   - Подчищает завершившиеся контейнеры
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/conveyor/internal/config"
	"github.com/shaiso/conveyor/internal/mq"
	"github.com/shaiso/conveyor/internal/runtime"
	"github.com/shaiso/conveyor/internal/scaler"
	"github.com/shaiso/conveyor/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-scaler")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Конфигурация: противоречивые границы фатальны
	cfg, err := config.LoadScaler()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Management API брокера — источник метрики глубины очереди
	metrics := mq.NewManagementClient(mq.ManagementConfig{
		BaseURL: cfg.Broker.ManagementURL,
		VHost:   cfg.Broker.VHost,
		User:    cfg.Broker.ManagementUser,
		Pass:    cfg.Broker.ManagementPass,
	})

	// Docker Engine
	rt, err := runtime.NewClient(logger)
	if err != nil {
		logger.Error("failed to create docker client", "error", err)
		os.Exit(1)
	}
	logger.Info("docker connected")

	// Создаём контроллер
	ctrl := scaler.New(scaler.Config{
		Metrics:      metrics,
		Runtime:      rt,
		Queue:        cfg.Broker.Queue,
		TickInterval: cfg.PollInterval,
		MinReplicas:  cfg.MinReplicas,
		MaxReplicas:  cfg.MaxReplicas,
		WorkerImage:  cfg.WorkerImage,
		LabelValue:   cfg.OwnershipLabel,
		Network:      cfg.WorkerNetwork,
		WorkerEnv:    cfg.WorkerEnv,
		StopGrace:    cfg.StopGrace,
		Logger:       logger,
	})

	// Запускаем контроллер
	if err := ctrl.Start(ctx); err != nil {
		logger.Error("failed to start controller", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8080"
	if v := os.Getenv("SCALER_PORT"); v != "" {
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

	// Останавливаем контроллер. Запущенные воркеры продолжают работать:
	// их подхватит следующий запуск по метке владения
	ctrl.Stop()
	logger.Info("conveyor-scaler stopped")
}
