// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики (префикс conveyor_)
//
// Контроллер, воркер и продюсер используют единый формат логирования
// и экспортируют метрики на /metrics endpoint своего HTTP-порта.
package telemetry
