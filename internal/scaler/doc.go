// Package scaler — контроллер масштабирования воркеров.
//
// Контроллер раз в интервал замеряет глубину очереди через management
// API брокера, вычисляет целевое число воркеров по закону
// clamp(backlog, min, max) и приводит к нему фактический набор
// контейнеров с меткой владения.
//
// Структура:
//   - scaler.go    — Controller: цикл тиков, закон управления
//   - reconcile.go — приведение набора контейнеров к целевому
//
// Принципы:
//   - никакого состояния между тиками: каждый тик замеряет всё заново;
//   - ошибка замера или runtime пропускает тик целиком, масштаб
//     не меняется — деградация метрик не гасит работающих воркеров;
//   - при уменьшении масштаба первыми останавливаются старейшие
//     контейнеры, выбор детерминирован.
package scaler
