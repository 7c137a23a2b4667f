package producer

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// scheduleParser — парсер выражений расписания. Принимает классические
// пять полей cron и дескрипторы вида "@every 60s" или "@hourly".
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule разбирает выражение расписания обхода.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	return sched, nil
}

// ValidateSchedule проверяет валидность выражения расписания.
func ValidateSchedule(expr string) error {
	_, err := ParseSchedule(expr)
	return err
}
