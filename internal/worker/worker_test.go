package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/conveyor/internal/blob"
	"github.com/shaiso/conveyor/internal/domain"
	"github.com/shaiso/conveyor/internal/mq"
)

// --- Фейки ---

type fakeMover struct {
	err   error
	calls [][2]string // пары (src, dest)
}

func (f *fakeMover) Move(ctx context.Context, src, dest string) error {
	f.calls = append(f.calls, [2]string{src, dest})
	return f.err
}

type fakePublisher struct {
	envelopes []*domain.Envelope
	records   []*domain.DeadLetterRecord

	publishErr error
	dlqErr     error
}

func (f *fakePublisher) Publish(ctx context.Context, queue mq.Queue, env *domain.Envelope) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.envelopes = append(f.envelopes, env)
	return nil
}

func (f *fakePublisher) PublishDeadLetter(ctx context.Context, queue mq.Queue, rec *domain.DeadLetterRecord) error {
	if f.dlqErr != nil {
		return f.dlqErr
	}
	f.records = append(f.records, rec)
	return nil
}

func newTestWorker(mover Mover, pub EnvelopePublisher, maxRetries int) *Worker {
	return New(Config{
		Mover:       mover,
		Publisher:   pub,
		MaxRetries:  maxRetries,
		BackoffBase: time.Millisecond,
		BackoffCap:  4 * time.Millisecond,
	})
}

func testItem() domain.WorkItem {
	return domain.WorkItem{
		Container: "incoming",
		Path:      "sample/",
		Blob:      "sample.txt",
		Dest:      "processed/sample/sample.txt",
		Timestamp: time.Now().UTC(),
	}
}

// redeliver гоняет конверт через process, эмулируя брокер: каждая
// переопубликация доставляется заново. Возвращает dead-letter запись.
func redeliver(t *testing.T, w *Worker, pub *fakePublisher, env *domain.Envelope) *domain.DeadLetterRecord {
	t.Helper()

	for i := 0; i < 10; i++ {
		published := len(pub.envelopes)

		if err := w.process(context.Background(), env); err != nil {
			t.Fatalf("process returned error on delivery %d: %v", i+1, err)
		}
		if len(pub.records) > 0 {
			return pub.records[0]
		}
		if len(pub.envelopes) == published {
			t.Fatal("process made no progress: no republish and no dead letter")
		}
		env = pub.envelopes[len(pub.envelopes)-1]
	}

	t.Fatal("no dead letter after 10 deliveries")
	return nil
}

// --- Успешная обработка ---

func TestProcess_Success(t *testing.T) {
	mover := &fakeMover{}
	pub := &fakePublisher{}
	w := newTestWorker(mover, pub, 3)

	env := domain.NewEnvelope(testItem())
	if err := w.process(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mover.calls) != 1 {
		t.Fatalf("expected 1 move, got %d", len(mover.calls))
	}
	if mover.calls[0][0] != "sample/sample.txt" || mover.calls[0][1] != "processed/sample/sample.txt" {
		t.Errorf("unexpected move args: %v", mover.calls[0])
	}

	// Успех не публикует ничего
	if len(pub.envelopes) != 0 || len(pub.records) != 0 {
		t.Errorf("success must not publish: envelopes %d, records %d",
			len(pub.envelopes), len(pub.records))
	}
}

// --- Transient-ошибки и исчерпание повторов ---

func TestProcess_TransientExhaustsRetries(t *testing.T) {
	mover := &fakeMover{err: errors.New("connection timed out")}
	pub := &fakePublisher{}
	w := newTestWorker(mover, pub, 3)

	rec := redeliver(t, w, pub, domain.NewEnvelope(testItem()))

	// Три переопубликации со счётчиками 1, 2, 3
	if len(pub.envelopes) != 3 {
		t.Fatalf("expected 3 republished envelopes, got %d", len(pub.envelopes))
	}
	for i, env := range pub.envelopes {
		if env.RetryCount != i+1 {
			t.Errorf("republish %d: expected retry count %d, got %d", i, i+1, env.RetryCount)
		}
	}

	// Четыре попытки переноса: исходная плюс три повтора
	if len(mover.calls) != 4 {
		t.Errorf("expected 4 move attempts, got %d", len(mover.calls))
	}

	// Dead-letter с исчерпанным счётчиком и классом transient
	if rec.RetryCount != 3 {
		t.Errorf("expected dead letter retry count 3, got %d", rec.RetryCount)
	}
	if rec.ErrorKind != domain.ErrorKindTransient {
		t.Errorf("expected transient kind, got %q", rec.ErrorKind)
	}
	if !strings.Contains(rec.Error, "connection timed out") {
		t.Errorf("record must carry the final error, got %q", rec.Error)
	}
	if rec.ProcessorID != w.ProcessorID() {
		t.Errorf("record must carry processor id")
	}
}

func TestProcess_ZeroMaxRetries(t *testing.T) {
	mover := &fakeMover{err: errors.New("flaky")}
	pub := &fakePublisher{}
	w := newTestWorker(mover, pub, 0)

	env := domain.NewEnvelope(testItem())
	if err := w.process(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// MaxRetries 0: первый же transient-сбой уводит в dead-letter
	if len(pub.envelopes) != 0 {
		t.Errorf("expected no republish, got %d", len(pub.envelopes))
	}
	if len(pub.records) != 1 || pub.records[0].RetryCount != 0 {
		t.Errorf("expected immediate dead letter with count 0: %+v", pub.records)
	}
}

// --- Перманентные ошибки ---

func TestProcess_PermanentConflict(t *testing.T) {
	mover := &fakeMover{err: fmt.Errorf("move: %w", blob.ErrConflict)}
	pub := &fakePublisher{}
	w := newTestWorker(mover, pub, 3)

	env := domain.NewEnvelope(testItem())
	if err := w.process(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Конфликт не ретраится: ни одной переопубликации
	if len(pub.envelopes) != 0 {
		t.Errorf("permanent failure must not republish, got %d", len(pub.envelopes))
	}
	if len(mover.calls) != 1 {
		t.Errorf("expected single move attempt, got %d", len(mover.calls))
	}

	rec := pub.records[0]
	if rec.RetryCount != 0 {
		t.Errorf("expected retry count 0, got %d", rec.RetryCount)
	}
	if rec.ErrorKind != domain.ErrorKindPermanent {
		t.Errorf("expected permanent kind, got %q", rec.ErrorKind)
	}
}

func TestProcess_SourceMissing(t *testing.T) {
	mover := &fakeMover{err: fmt.Errorf("%w: sample/sample.txt", blob.ErrNotFound)}
	pub := &fakePublisher{}
	w := newTestWorker(mover, pub, 3)

	if err := w.process(context.Background(), domain.NewEnvelope(testItem())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.records) != 1 || pub.records[0].ErrorKind != domain.ErrorKindPermanent {
		t.Errorf("missing source must dead-letter as permanent: %+v", pub.records)
	}
}

func TestProcess_MalformedItem(t *testing.T) {
	mover := &fakeMover{}
	pub := &fakePublisher{}
	w := newTestWorker(mover, pub, 3)

	item := testItem()
	item.Dest = "" // обязательное поле отсутствует

	if err := w.process(context.Background(), domain.NewEnvelope(item)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// До переноса дело не доходит
	if len(mover.calls) != 0 {
		t.Errorf("malformed item must not reach the mover")
	}
	if len(pub.records) != 1 || pub.records[0].ErrorKind != domain.ErrorKindPermanent {
		t.Errorf("expected permanent dead letter: %+v", pub.records)
	}
}

// --- Разбор конверта ---

func TestHandleDelivery_ValidEnvelope(t *testing.T) {
	mover := &fakeMover{}
	pub := &fakePublisher{}
	w := newTestWorker(mover, pub, 3)

	body, err := json.Marshal(map[string]any{
		"trace_id":    "trace-1",
		"retry_count": 0,
		"payload": map[string]any{
			"container": "incoming",
			"path":      "sample/",
			"blob":      "sample.txt",
			"dest":      "processed/sample/sample.txt",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.handleDelivery(context.Background(), &mq.Delivery{Body: body}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mover.calls) != 1 {
		t.Fatalf("expected 1 move, got %d", len(mover.calls))
	}
	if mover.calls[0][0] != "sample/sample.txt" {
		t.Errorf("unexpected source: %q", mover.calls[0][0])
	}
}

func TestHandleDelivery_MalformedEnvelope(t *testing.T) {
	mover := &fakeMover{}
	pub := &fakePublisher{}
	w := newTestWorker(mover, pub, 3)

	d := &mq.Delivery{Body: []byte("definitely not json"), MessageID: "msg-42"}
	if err := w.handleDelivery(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mover.calls) != 0 {
		t.Error("malformed envelope must not reach the mover")
	}

	rec := pub.records[0]
	if rec.ErrorKind != domain.ErrorKindPermanent {
		t.Errorf("expected permanent kind, got %q", rec.ErrorKind)
	}
	// Запись сохраняет исходные байты для ручного разбора
	if !strings.Contains(rec.Error, "definitely not json") {
		t.Errorf("record must carry the raw body, got %q", rec.Error)
	}
}

// --- Сбои публикации ---

func TestProcess_RepublishFailureKeepsDelivery(t *testing.T) {
	mover := &fakeMover{err: errors.New("flaky")}
	pub := &fakePublisher{publishErr: errors.New("broker unavailable")}
	w := newTestWorker(mover, pub, 3)

	err := w.process(context.Background(), domain.NewEnvelope(testItem()))

	// Ошибка наружу: транспорт вернёт исходное сообщение брокеру
	if err == nil {
		t.Fatal("expected error when republish fails")
	}
	if len(pub.records) != 0 {
		t.Error("republish failure must not dead-letter")
	}
}

func TestProcess_DeadLetterFailureKeepsDelivery(t *testing.T) {
	mover := &fakeMover{err: fmt.Errorf("%w", blob.ErrConflict)}
	pub := &fakePublisher{dlqErr: errors.New("broker unavailable")}
	w := newTestWorker(mover, pub, 3)

	if err := w.process(context.Background(), domain.NewEnvelope(testItem())); err == nil {
		t.Fatal("expected error when dead-letter publish fails")
	}
}

// --- Остановка во время backoff ---

func TestProcess_ShutdownDuringBackoff(t *testing.T) {
	mover := &fakeMover{err: errors.New("flaky")}
	pub := &fakePublisher{}
	w := New(Config{
		Mover:       mover,
		Publisher:   pub,
		MaxRetries:  3,
		BackoffBase: 10 * time.Second, // без укорачивания тест бы завис
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := time.Now()
	err := w.process(ctx, domain.NewEnvelope(testItem()))
	elapsed := time.Since(started)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ожидание укорочено, конверт опубликован сразу с сохранённым счётчиком
	if elapsed > time.Second {
		t.Errorf("backoff was not cut short: took %v", elapsed)
	}
	if len(pub.envelopes) != 1 || pub.envelopes[0].RetryCount != 1 {
		t.Errorf("expected immediate republish with count 1: %+v", pub.envelopes)
	}
}

// --- Backoff ---

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		base    time.Duration
		cap     time.Duration
		want    time.Duration
	}{
		// Классическая экспонента от секунды
		{1, time.Second, 30 * time.Second, time.Second},
		{2, time.Second, 30 * time.Second, 2 * time.Second},
		{3, time.Second, 30 * time.Second, 4 * time.Second},
		{4, time.Second, 30 * time.Second, 8 * time.Second},
		// Потолок
		{6, time.Second, 30 * time.Second, 30 * time.Second},
		{10, time.Second, 30 * time.Second, 30 * time.Second},
		{3, 2 * time.Second, 5 * time.Second, 5 * time.Second},
		// База выше потолка прижимается к нему
		{1, 10 * time.Second, 5 * time.Second, 5 * time.Second},
		// Некорректный attempt ведёт себя как первый
		{0, time.Second, 30 * time.Second, time.Second},
	}

	for _, tt := range tests {
		got := backoff(tt.attempt, tt.base, tt.cap)
		if got != tt.want {
			t.Errorf("backoff(%d, %v, %v) = %v, want %v",
				tt.attempt, tt.base, tt.cap, got, tt.want)
		}
	}
}

// --- Конфигурация ---

func TestNew_Defaults(t *testing.T) {
	w := New(Config{})

	if w.queue != mq.QueueEvents {
		t.Errorf("expected default queue %q, got %q", mq.QueueEvents, w.queue)
	}
	if w.deadLetterQueue != mq.QueueDeadLetter {
		t.Errorf("expected default dlq %q, got %q", mq.QueueDeadLetter, w.deadLetterQueue)
	}
	if w.processorID == "" {
		t.Error("expected generated processor id")
	}

	// Отрицательное значение откатывается к умолчанию, ноль сохраняется
	if neg := New(Config{MaxRetries: -1}); neg.maxRetries != defaultMaxRetries {
		t.Errorf("negative max retries must fall back to default")
	}
	if zero := New(Config{}); zero.maxRetries != 0 {
		t.Errorf("zero max retries must be honored")
	}
}
