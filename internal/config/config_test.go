package config

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestLoadScaler_Defaults(t *testing.T) {
	cfg, err := LoadScaler()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PollInterval != 30*time.Second {
		t.Errorf("expected poll interval 30s, got %v", cfg.PollInterval)
	}
	if cfg.MinReplicas != 1 || cfg.MaxReplicas != 10 {
		t.Errorf("expected bounds [1,10], got [%d,%d]", cfg.MinReplicas, cfg.MaxReplicas)
	}
	if cfg.Broker.Queue != "blob.events" {
		t.Errorf("expected default queue blob.events, got %q", cfg.Broker.Queue)
	}
	if cfg.Broker.DeadLetterQueue != "blob.error" {
		t.Errorf("expected default dlq blob.error, got %q", cfg.Broker.DeadLetterQueue)
	}
	if cfg.OwnershipLabel != "conveyor-scaler" {
		t.Errorf("expected default ownership label, got %q", cfg.OwnershipLabel)
	}
}

func TestLoadScaler_FromEnvironment(t *testing.T) {
	t.Setenv("POLL_INTERVAL_SECONDS", "5")
	t.Setenv("MIN_REPLICAS", "0")
	t.Setenv("MAX_REPLICAS", "3")
	t.Setenv("WORKER_IMAGE", "registry.local/worker:v2")

	cfg, err := LoadScaler()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %v", cfg.PollInterval)
	}
	// Нулевой минимум легален: разрешает масштабирование в ноль
	if cfg.MinReplicas != 0 {
		t.Errorf("expected min replicas 0, got %d", cfg.MinReplicas)
	}
	if cfg.MaxReplicas != 3 {
		t.Errorf("expected max replicas 3, got %d", cfg.MaxReplicas)
	}
	if cfg.WorkerImage != "registry.local/worker:v2" {
		t.Errorf("unexpected worker image %q", cfg.WorkerImage)
	}
}

func TestLoadScaler_InvalidBounds(t *testing.T) {
	t.Setenv("MIN_REPLICAS", "5")
	t.Setenv("MAX_REPLICAS", "2")

	_, err := LoadScaler()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadScaler_WorkerEnvPassthrough(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "amqp://broker:5672/")
	t.Setenv("BLOB_CONTAINER", "incoming")

	cfg, err := LoadScaler()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Переменные из окружения контроллера попадают в окружение воркеров
	if !slices.Contains(cfg.WorkerEnv, "RABBITMQ_URL=amqp://broker:5672/") {
		t.Errorf("RABBITMQ_URL not passed through: %v", cfg.WorkerEnv)
	}
	if !slices.Contains(cfg.WorkerEnv, "BLOB_CONTAINER=incoming") {
		t.Errorf("BLOB_CONTAINER not passed through: %v", cfg.WorkerEnv)
	}
}

func TestLoadWorker_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative max retries", "MAX_RETRIES", "-1"},
		{"zero backoff base", "BACKOFF_BASE_SECONDS", "0"},
		{"same work and dead-letter queue", "RABBITMQ_DLQ", "blob.events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadWorker()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadWorker_Defaults(t *testing.T) {
	cfg, err := LoadWorker()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxRetries != 3 {
		t.Errorf("expected max retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.BackoffBase != time.Second {
		t.Errorf("expected backoff base 1s, got %v", cfg.BackoffBase)
	}
	if cfg.BackoffCap != 30*time.Second {
		t.Errorf("expected backoff cap 30s, got %v", cfg.BackoffCap)
	}
	if cfg.Store.Container != "incoming" {
		t.Errorf("expected default container incoming, got %q", cfg.Store.Container)
	}
}

func TestLoadInit_Defaults(t *testing.T) {
	cfg, err := LoadInit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"incoming", "processed"}
	if !slices.Equal(cfg.Containers, want) {
		t.Errorf("expected default containers %v, got %v", want, cfg.Containers)
	}
	if !cfg.SeedSample {
		t.Error("expected seeding enabled by default")
	}
	if cfg.SampleFile != "sample.txt" {
		t.Errorf("expected default sample file, got %q", cfg.SampleFile)
	}
}

func TestLoadInit_ContainerList(t *testing.T) {
	t.Setenv("INIT_CONTAINERS", "incoming, processed ,archive")

	cfg, err := LoadInit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"incoming", "processed", "archive"}
	if !slices.Equal(cfg.Containers, want) {
		t.Errorf("expected %v, got %v", want, cfg.Containers)
	}
}

func TestEnvInt_Malformed(t *testing.T) {
	t.Setenv("MAX_REPLICAS", "not-a-number")

	cfg, err := LoadScaler()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Нечитаемое значение откатывается к умолчанию
	if cfg.MaxReplicas != 10 {
		t.Errorf("expected fallback to 10, got %d", cfg.MaxReplicas)
	}
}
