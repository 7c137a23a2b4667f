package config

import "errors"

// Ошибки пакета config.
var (
	// ErrInvalidConfig — конфигурация противоречива или неполна.
	// Сервис обязан завершиться, не начиная работу.
	ErrInvalidConfig = errors.New("invalid configuration")
)
