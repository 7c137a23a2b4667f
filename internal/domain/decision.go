package domain

import "time"

// ScalingDecision — результат одного тика контроллера.
//
// Решение эфемерно: вычисляется заново на каждом тике из текущей
// глубины очереди и никуда не сохраняется. История решений живёт
// только в логах и метриках.
type ScalingDecision struct {
	// Backlog — число сообщений, готовых к доставке, на момент тика.
	Backlog int

	// Desired — целевое число воркеров после применения границ.
	Desired int

	// At — время вычисления.
	At time.Time
}
