package domain

import (
	"sort"
	"time"
)

// ContainerState — состояние контейнера воркера с точки зрения контроллера.
type ContainerState string

const (
	// ContainerStateStarting — контейнер создан, но ещё не работает.
	ContainerStateStarting ContainerState = "starting"

	// ContainerStateRunning — контейнер работает и потребляет очередь.
	ContainerStateRunning ContainerState = "running"

	// ContainerStateStopping — контейнеру послан сигнал остановки,
	// он дорабатывает текущее сообщение.
	ContainerStateStopping ContainerState = "stopping"

	// ContainerStateStopped — контейнер завершился и подлежит удалению.
	ContainerStateStopped ContainerState = "stopped"
)

// IsTerminal сообщает, что контейнер уже не вернётся к работе.
func (s ContainerState) IsTerminal() bool {
	return s == ContainerStateStopped
}

// ManagedContainer — экземпляр воркера под управлением контроллера.
//
// Контроллер не ведёт собственный реестр: авторитетный список всегда
// строится заново запросом к runtime по метке владения. Поэтому
// перезапуск контроллера не теряет и не осиротляет контейнеры.
type ManagedContainer struct {
	// ID — идентификатор контейнера в runtime.
	ID string `json:"id"`

	// Name — человекочитаемое имя.
	Name string `json:"name"`

	// Image — образ, из которого контейнер запущен.
	Image string `json:"image"`

	// CreatedAt — время создания. По нему выбираются жертвы
	// при уменьшении масштаба.
	CreatedAt time.Time `json:"createdAt"`

	// State — приведённое к доменному состояние.
	State ContainerState `json:"state"`
}

// SortOldestFirst сортирует контейнеры по возрасту, старшие первыми.
// При равном времени создания порядок детерминирован по ID, чтобы два
// прохода контроллера выбирали одних и тех же кандидатов.
func SortOldestFirst(containers []ManagedContainer) {
	sort.Slice(containers, func(i, j int) bool {
		if containers[i].CreatedAt.Equal(containers[j].CreatedAt) {
			return containers[i].ID < containers[j].ID
		}
		return containers[i].CreatedAt.Before(containers[j].CreatedAt)
	})
}

// ContainerSpec — параметры запуска нового контейнера воркера.
type ContainerSpec struct {
	// Image — образ воркера.
	Image string

	// Name — уникальное имя контейнера.
	Name string

	// Env — окружение в формате KEY=VALUE.
	Env []string

	// Labels — метки контейнера. Метка владения обязательна:
	// по ней контроллер отличает свои контейнеры от чужих.
	Labels map[string]string

	// Network — сеть, к которой подключается контейнер.
	// Пустая строка — сеть по умолчанию.
	Network string
}
