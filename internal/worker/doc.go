// Package worker обрабатывает события о блобах.
//
// # Обзор
//
// Worker — stateless компонент системы, который потребляет события
// из рабочей очереди и переносит соответствующие блобы в целевой путь.
// Worker отвечает за:
//
//   - Получение событий из очереди RabbitMQ, строго по одному (prefetch 1)
//   - Идемпотентный перенос блоба через адаптер хранилища
//   - Повторы transient-ошибок с exponential backoff
//   - Dead-lettering сообщений, обработку которых продолжать нельзя
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют из одной очереди; их число регулирует контроллер.
//
// # Машина состояний сообщения
//
//	Received → Attempting → Succeeded       транспорт ack'ает доставку
//	                      → RetryScheduled  конверт с count+1 публикуется
//	                                        заново, затем ack
//	                      → DeadLettered    запись в очередь ошибок, затем ack
//
// На одну доставку — ровно одна попытка переноса. Повтор — это новая
// публикация конверта с увеличенным счётчиком, а не внутренний цикл
// и не redelivery брокера: счётчик повторов переживает рестарты
// воркеров и смену экземпляра.
//
// # Использование
//
//	w := worker.New(worker.Config{
//	    Mover:     store,
//	    Publisher: publisher,
//	    Conn:      mqConn,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Классификация ошибок
//
// Пакет различает два класса ошибок переноса:
//   - Перманентные — blob.ErrNotFound, blob.ErrConflict,
//     domain.ErrMalformedItem, ErrMalformedEnvelope: повтор не даст
//     другого результата, сообщение сразу уходит в dead-letter.
//   - Transient — всё остальное (сеть, недоступность хранилища):
//     повтор с backoff base * 2^(attempt-1), не больше cap, пока
//     счётчик не достигнет MaxRetries.
//
// # Гарантии доставки
//
// Подтверждение исходного сообщения происходит только после успешной
// публикации повтора либо dead-letter записи. Сбой публикации
// оставляет сообщение у брокера (redelivery), поэтому возможны дубли
// обработки — идемпотентность переноса делает их безвредными.
// Потеря сообщения исключена на уровне протокола подтверждений.
package worker
