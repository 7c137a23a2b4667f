// Package cli реализует инструмент командной строки conveyor.
//
// # Обзор
//
// CLI — операционная утилита конвейера. Сервисы не выставляют
// собственного API, поэтому CLI подключается напрямую к подсистемам:
// management API брокера, AMQP, Docker Engine и блоб-хранилищу.
// Подключения настраиваются теми же переменными окружения, что и
// сервисы (см. internal/config).
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: conveyor queue depth --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по подсистемам:
//   - queue: depth, peek-dlq — глубина очередей и просмотр dead-letter
//     записей; peek возвращает просмотренное обратно в очередь
//   - fleet: list — контейнеры воркеров с меткой владения
//   - store: init, list — создание контейнеров хранилища и листинг блобов
//
// Каждая группа создаётся через фабричную функцию (NewQueueCmd и т.д.),
// принимающую outputFn — замыкание для ленивого создания Output после
// парсинга PersistentFlags.
package cli
