package worker

import "errors"

// Ошибки воркера.
var (
	// ErrMalformedEnvelope — тело сообщения не является валидным
	// конвертом. Перманентная ошибка: сразу в dead-letter.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)
