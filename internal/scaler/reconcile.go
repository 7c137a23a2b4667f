package scaler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/conveyor/internal/domain"
	"github.com/shaiso/conveyor/internal/telemetry"
)

// workerNamePrefix — префикс имён запускаемых контейнеров.
const workerNamePrefix = "conveyor-worker"

// reconcile приводит фактический набор контейнеров к желаемому.
//
// Фактический набор — живые контейнеры с меткой владения. Завершившиеся
// контейнеры не считаются и попутно удаляются. Ошибка посреди серии
// запусков или остановок оставляет набор в промежуточном состоянии —
// это допустимо, следующий тик заметит расхождение и продолжит.
func (c *Controller) reconcile(ctx context.Context, desired int) error {
	containers, err := c.runtime.ListByLabel(ctx, c.ownerFilter())
	if err != nil {
		return fmt.Errorf("list managed containers: %w", err)
	}

	live := make([]domain.ManagedContainer, 0, len(containers))
	for _, ct := range containers {
		if ct.State.IsTerminal() {
			// Janitor: завершившийся контейнер не работает, но занимает
			// имя и место. Неудача удаления не блокирует тик.
			if err := c.runtime.Remove(ctx, ct.ID); err != nil {
				c.logger.Warn("failed to remove exited container",
					"container_id", ct.ID,
					"error", err,
				)
			} else {
				c.logger.Info("removed exited container",
					"container_id", ct.ID,
					"name", ct.Name,
				)
			}
			continue
		}
		live = append(live, ct)
	}

	actual := len(live)
	telemetry.ScalerActualReplicas.Set(float64(actual))

	switch {
	case desired > actual:
		return c.scaleUp(ctx, desired-actual)
	case desired < actual:
		return c.scaleDown(ctx, live, actual-desired)
	default:
		return nil
	}
}

// scaleUp запускает count новых воркеров.
func (c *Controller) scaleUp(ctx context.Context, count int) error {
	c.logger.Info("scaling up", "count", count)

	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s-%s", workerNamePrefix, uuid.NewString()[:8])

		spec := domain.ContainerSpec{
			Image: c.workerImage,
			Name:  name,
			Env:   c.workerEnv,
			Labels: map[string]string{
				LabelManagedBy: c.labelValue,
				LabelRole:      roleWorker,
			},
			Network: c.network,
		}

		id, err := c.runtime.Start(ctx, spec)
		if err != nil {
			return fmt.Errorf("start worker %d of %d: %w", i+1, count, err)
		}

		telemetry.ScalerContainersStarted.Inc()
		c.logger.Info("worker container started",
			"container_id", id,
			"name", name,
		)
	}
	return nil
}

// scaleDown останавливает count лишних воркеров, старшие первыми.
//
// Порядок выбора жертв детерминирован: по времени создания, при
// равенстве — по ID. Остановка graceful: контейнеру даётся grace-период
// дообработать текущее сообщение, недоставленные сообщения вернёт брокер.
func (c *Controller) scaleDown(ctx context.Context, live []domain.ManagedContainer, count int) error {
	c.logger.Info("scaling down", "count", count)

	domain.SortOldestFirst(live)

	for i := 0; i < count; i++ {
		victim := live[i]

		if err := c.runtime.Stop(ctx, victim.ID, c.stopGrace); err != nil {
			return fmt.Errorf("stop container %s: %w", victim.ID, err)
		}

		telemetry.ScalerContainersStopped.Inc()
		c.logger.Info("worker container stopped",
			"container_id", victim.ID,
			"name", victim.Name,
			"created_at", victim.CreatedAt,
		)
	}
	return nil
}

// ownerFilter возвращает фильтр метки владения в формате key=value.
func (c *Controller) ownerFilter() string {
	return LabelManagedBy + "=" + c.labelValue
}
