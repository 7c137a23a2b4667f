// Package blob — адаптер блоб-хранилища (Azure Blob Storage / Azurite).
//
// Структура:
//   - store.go  — клиент: Move, List, EnsureContainer, Upload
//   - errors.go — классификация ошибок на перманентные и transient
//
// Центральная операция — идемпотентный Move: перенос блоба внутри
// контейнера через server-side копию с удалением источника. Move
// спроектирован под at-least-once доставку событий: повторная
// обработка уже перенесённого блоба завершается успехом без
// побочных эффектов, а конфликт содержимого в целевом пути —
// перманентная ошибка, которую нельзя чинить повтором.
package blob
