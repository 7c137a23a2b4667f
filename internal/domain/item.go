package domain

import (
	"fmt"
	"path"
	"time"
)

// ProcessedPrefix — префикс, под которым лежат уже обработанные блобы.
// Блобы с этим префиксом продюсер не анонсирует повторно.
const ProcessedPrefix = "processed/"

// WorkItem — единица работы: перенос одного блоба внутри контейнера
// хранилища из исходного пути в целевой.
//
// WorkItem неизменяем после публикации. Идентичность задаёт тройка
// (Container, Path, Blob): от неё зависит идемпотентность обработки.
// Уникальность доставки система не гарантирует — один и тот же item
// может приехать несколько раз, и обработчик обязан это переживать.
type WorkItem struct {
	// Container — имя контейнера в хранилище.
	Container string `json:"container"`

	// Path — префикс исходного блоба. Может быть пустым,
	// завершающий "/" допустим.
	Path string `json:"path"`

	// Blob — базовое имя блоба без префикса.
	Blob string `json:"blob"`

	// Dest — целевой путь внутри того же контейнера.
	Dest string `json:"dest"`

	// Timestamp — время публикации события.
	Timestamp time.Time `json:"timestamp"`
}

// SourcePath возвращает полный путь исходного блоба.
func (w *WorkItem) SourcePath() string {
	if w.Path == "" {
		return w.Blob
	}
	return path.Join(w.Path, w.Blob)
}

// Validate проверяет обязательные поля.
// Неполный item — перманентная ошибка: повтор не даст другого результата.
func (w *WorkItem) Validate() error {
	if w.Blob == "" {
		return fmt.Errorf("%w: empty blob name", ErrMalformedItem)
	}
	if w.Dest == "" {
		return fmt.Errorf("%w: empty destination", ErrMalformedItem)
	}
	return nil
}

// DestinationFor возвращает целевой путь для исходного пути src.
// Правило детерминировано: один источник всегда даёт одну цель,
// поэтому повторные события одного блоба сходятся в одну точку.
func DestinationFor(src string) string {
	return ProcessedPrefix + src
}
