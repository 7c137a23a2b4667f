// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление очередей
//   - publisher.go  — публикация конвертов и dead-letter записей
//   - consumer.go   — потребление сообщений по одному
//   - management.go — чтение глубины очереди через management API
//
// Очереди:
//   - blob.events — события о блобах, ожидающих обработки
//   - blob.error  — терминальные записи о прекращённой обработке
//
// Обе очереди живут на default exchange, маршрутизация по имени.
// Повторы реализованы повторной публикацией конверта с увеличенным
// счётчиком, а не механизмами redelivery или DLX брокера.
package mq
