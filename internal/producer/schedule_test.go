package producer

import (
	"testing"
	"time"
)

func TestParseSchedule_Every(t *testing.T) {
	sched, err := ParseSchedule("@every 60s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	next := sched.Next(from)
	if got := next.Sub(from); got != time.Minute {
		t.Errorf("expected next in 60s, got %v", got)
	}
}

func TestParseSchedule_Cron(t *testing.T) {
	sched, err := ParseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	from := time.Date(2025, 3, 10, 12, 3, 0, 0, time.UTC)
	next := sched.Next(from)
	want := time.Date(2025, 3, 10, 12, 5, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestParseSchedule_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"not a schedule",
		"* * *",      // мало полей
		"@every",     // дескриптор без длительности
		"61 * * * *", // минута вне диапазона
	}

	for _, expr := range invalid {
		if _, err := ParseSchedule(expr); err == nil {
			t.Errorf("expected error for %q", expr)
		}
	}
}

func TestValidateSchedule(t *testing.T) {
	if err := ValidateSchedule("@every 30s"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateSchedule("bogus"); err == nil {
		t.Error("expected error for bogus expression")
	}
}
