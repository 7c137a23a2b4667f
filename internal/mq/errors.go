package mq

import "errors"

// Ошибки пакета mq.
var (
	// ErrNotConnected — канал к брокеру сейчас недоступен.
	// Обычно означает, что идёт переподключение.
	ErrNotConnected = errors.New("not connected to broker")

	// ErrDeliveriesClosed — брокер закрыл поток доставок.
	// Потребитель перезапускается после reconnect.
	ErrDeliveriesClosed = errors.New("deliveries channel closed")

	// ErrManagementStatus — management API ответил не-200 статусом.
	ErrManagementStatus = errors.New("unexpected management api status")
)
