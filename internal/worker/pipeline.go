package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/conveyor/internal/blob"
	"github.com/shaiso/conveyor/internal/domain"
	"github.com/shaiso/conveyor/internal/mq"
	"github.com/shaiso/conveyor/internal/telemetry"
)

// maxBodyInRecord — сколько байт нечитаемого тела сохраняется
// в dead-letter записи.
const maxBodyInRecord = 512

// handleDelivery — вход одного сообщения.
//
// Возврат nil заставляет consumer подтвердить исходную доставку,
// возврат ошибки — вернуть её в очередь. Поэтому подтверждение всегда
// происходит ПОСЛЕ успешной публикации повтора или dead-letter записи:
// упавшая публикация оставляет исходное сообщение у брокера,
// и система не теряет его даже ценой дубля.
func (w *Worker) handleDelivery(ctx context.Context, d *mq.Delivery) error {
	var env domain.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		// Нечитаемый конверт ретраить бессмысленно: байты не изменятся
		cause := fmt.Errorf("%w: %v (body: %s)", ErrMalformedEnvelope, err, truncate(d.Body, maxBodyInRecord))
		w.logger.Error("failed to unmarshal envelope", "message_id", d.MessageID, "error", err)
		return w.deadLetter(ctx, &domain.Envelope{TraceID: d.MessageID}, cause)
	}

	return w.process(ctx, &env)
}

// process прогоняет конверт через машину состояний обработки.
func (w *Worker) process(ctx context.Context, env *domain.Envelope) error {
	logger := telemetry.WithTraceID(w.logger, env.TraceID).With("retry_count", env.RetryCount)

	if err := env.Item.Validate(); err != nil {
		logger.Warn("malformed work item", "error", err)
		return w.deadLetter(ctx, env, err)
	}

	src := env.Item.SourcePath()

	started := time.Now()
	err := w.mover.Move(ctx, src, env.Item.Dest)
	telemetry.WorkerAttemptSeconds.Observe(time.Since(started).Seconds())

	if err == nil {
		telemetry.WorkerMessages.WithLabelValues("succeeded").Inc()
		logger.Info("work item processed", "src", src, "dest", env.Item.Dest)
		return nil
	}

	if isPermanent(err) {
		// Перманентную ошибку повтор не вылечит — сразу dead-letter
		logger.Warn("permanent failure", "src", src, "error", err)
		return w.deadLetter(ctx, env, err)
	}

	if env.RetryCount >= w.maxRetries {
		logger.Warn("retries exhausted", "src", src, "error", err)
		return w.deadLetter(ctx, env, err)
	}

	return w.scheduleRetry(ctx, env, err)
}

// scheduleRetry увеличивает счётчик, выжидает backoff и публикует
// конверт заново в рабочую очередь.
func (w *Worker) scheduleRetry(ctx context.Context, env *domain.Envelope, cause error) error {
	next := env.NextRetry()
	delay := backoff(next.RetryCount, w.backoffBase, w.backoffCap)

	w.logger.Info("retry scheduled",
		"trace_id", next.TraceID,
		"retry_count", next.RetryCount,
		"delay", delay,
		"error", cause,
	)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		// Остановка укорачивает ожидание: конверт уходит обратно
		// в очередь немедленно, счётчик сохраняется
		ctx = context.WithoutCancel(ctx)
	}

	if err := w.publisher.Publish(ctx, w.queue, next); err != nil {
		// Исходное сообщение не подтверждаем — брокер доставит повторно
		return fmt.Errorf("republish envelope: %w", err)
	}

	telemetry.WorkerMessages.WithLabelValues("retried").Inc()
	return nil
}

// deadLetter публикует терминальную запись и, при успехе, разрешает
// подтвердить исходное сообщение.
func (w *Worker) deadLetter(ctx context.Context, env *domain.Envelope, cause error) error {
	rec := &domain.DeadLetterRecord{
		Envelope:    *env,
		Error:       cause.Error(),
		ErrorKind:   errorKind(cause),
		FailedAt:    time.Now().UTC(),
		ProcessorID: w.processorID,
	}

	if err := w.publisher.PublishDeadLetter(ctx, w.deadLetterQueue, rec); err != nil {
		return fmt.Errorf("publish dead letter: %w", err)
	}

	telemetry.WorkerMessages.WithLabelValues("dead_lettered").Inc()
	w.logger.Error("work item dead-lettered",
		"trace_id", env.TraceID,
		"retry_count", env.RetryCount,
		"error_kind", rec.ErrorKind,
		"error", cause,
	)
	return nil
}

// isPermanent объединяет перманентные ошибки хранилища и домена.
func isPermanent(err error) bool {
	return blob.IsPermanent(err) ||
		errors.Is(err, domain.ErrMalformedItem) ||
		errors.Is(err, ErrMalformedEnvelope)
}

// errorKind возвращает метку класса ошибки для dead-letter записи.
func errorKind(err error) string {
	if isPermanent(err) {
		return domain.ErrorKindPermanent
	}
	return domain.ErrorKindTransient
}

// truncate обрезает тело до n байт для включения в запись.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
