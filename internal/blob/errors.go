package blob

import "errors"

// Ошибки пакета blob.
var (
	// ErrNotFound — исходный блоб отсутствует, и в целевом пути его
	// тоже нет. Перманентная ошибка: событие указывает в пустоту.
	ErrNotFound = errors.New("source blob not found")

	// ErrConflict — целевой блоб существует с другим содержимым.
	// Перманентная ошибка: перезапись чужого результата запрещена.
	ErrConflict = errors.New("destination exists with different content")

	// ErrCopyFailed — server-side копия завершилась неуспешным статусом.
	// Transient: повтор начнёт копию заново.
	ErrCopyFailed = errors.New("copy failed")
)

// IsPermanent сообщает, что ошибка переноса не лечится повтором.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}
