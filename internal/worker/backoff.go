package worker

import "time"

// backoff вычисляет паузу перед повтором номер attempt (attempt >= 1):
// base * 2^(attempt-1), но не больше cap.
func backoff(attempt int, base, cap time.Duration) time.Duration {
	if base <= 0 {
		base = defaultBackoffBase
	}
	if cap <= 0 {
		cap = defaultBackoffCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}
