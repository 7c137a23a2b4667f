package domain

import (
	"time"

	"github.com/google/uuid"
)

// Envelope — транспортная обёртка WorkItem.
//
// Envelope — единственное место, где живёт счётчик повторов: он едет
// вместе с сообщением, а не хранится на стороне воркера или брокера.
// Повтор — это всегда новая публикация нового конверта с увеличенным
// RetryCount, а не redelivery исходного сообщения.
type Envelope struct {
	// TraceID — сквозной идентификатор для корреляции логов.
	TraceID string `json:"trace_id"`

	// RetryCount — сколько раз конверт уже переопубликовывался
	// после transient-ошибки. Инвариант: 0 <= RetryCount <= maxRetries.
	RetryCount int `json:"retry_count"`

	// Item — полезная нагрузка.
	Item WorkItem `json:"payload"`
}

// NewEnvelope создаёт конверт с нулевым счётчиком повторов.
func NewEnvelope(item WorkItem) *Envelope {
	return &Envelope{
		TraceID:    uuid.NewString(),
		RetryCount: 0,
		Item:       item,
	}
}

// NextRetry возвращает копию конверта с увеличенным счётчиком.
// Исходный конверт не меняется.
func (e *Envelope) NextRetry() *Envelope {
	next := *e
	next.RetryCount++
	return &next
}

// Классификация финальной ошибки в dead-letter записи.
const (
	// ErrorKindTransient — ошибка могла пройти при повторе,
	// но попытки исчерпаны.
	ErrorKindTransient = "transient"

	// ErrorKindPermanent — повтор не имел смысла.
	ErrorKindPermanent = "permanent"
)

// DeadLetterRecord — терминальная запись о сообщении, обработку
// которого система прекратила насовсем.
//
// Запись публикуется в отдельную очередь и автоматически не
// переобрабатывается: канал существует для ручного разбора.
type DeadLetterRecord struct {
	Envelope

	// Error — текст финальной ошибки, полная цепочка.
	Error string `json:"error"`

	// ErrorKind — ErrorKindTransient либо ErrorKindPermanent.
	ErrorKind string `json:"error_kind"`

	// FailedAt — момент принятия решения о dead-letter.
	FailedAt time.Time `json:"failed_at"`

	// ProcessorID — идентификатор экземпляра воркера, принявшего решение.
	ProcessorID string `json:"processor_id"`
}
