// Package runtime — адаптер container runtime (Docker Engine API).
//
// Контроллеру от runtime нужны четыре операции: перечислить контейнеры
// по метке владения, запустить новый, остановить с grace-периодом,
// удалить завершившийся. Никакого собственного состояния пакет не
// держит: истина о наборе контейнеров всегда на стороне демона.
package runtime
