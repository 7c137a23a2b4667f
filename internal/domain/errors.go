package domain

import "errors"

// Ошибки доменной модели.
var (
	// ErrMalformedItem — WorkItem не содержит обязательных полей.
	// Ошибка перманентная: сообщение уходит в dead-letter без повторов.
	ErrMalformedItem = errors.New("malformed work item")
)
