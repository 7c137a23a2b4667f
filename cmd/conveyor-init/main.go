// Conveyor Init — одноразовая инициализация блоб-хранилища.
//
// Создаёт контейнеры хранилища (по умолчанию incoming и processed)
// и при SEED_SAMPLE=true кладёт тестовый блоб в рабочий контейнер.
// Запускается перед остальными сервисами и завершается.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/conveyor/internal/blob"
	"github.com/shaiso/conveyor/internal/config"
	"github.com/shaiso/conveyor/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-init")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadInit()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := blob.NewStore(blob.Config{
		ConnectionString: cfg.Store.ConnectionString,
		Container:        cfg.Store.Container,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("failed to create storage client", "error", err)
		os.Exit(1)
	}

	for _, name := range cfg.Containers {
		if err := store.EnsureContainer(ctx, name); err != nil {
			logger.Error("failed to ensure container", "container", name, "error", err)
			os.Exit(1)
		}
	}

	if cfg.SeedSample {
		name := "sample/" + cfg.SampleFile
		data := fmt.Sprintf("Hello - seeded at %s\n", time.Now().UTC().Format(time.RFC3339))
		if err := store.Upload(ctx, name, []byte(data)); err != nil {
			logger.Error("failed to seed sample blob", "blob", name, "error", err)
			os.Exit(1)
		}
		logger.Info("sample blob seeded", "blob", name)
	}

	logger.Info("storage initialization complete", "containers", cfg.Containers)
}
