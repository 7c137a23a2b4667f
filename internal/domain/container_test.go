package domain

import (
	"testing"
	"time"
)

func TestSortOldestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	age := func(minutes int) time.Time { return base.Add(-time.Duration(minutes) * time.Minute) }

	// Возрасты: 10, 5, 30, 1 минут
	containers := []ManagedContainer{
		{ID: "c2", CreatedAt: age(10)},
		{ID: "c3", CreatedAt: age(5)},
		{ID: "c1", CreatedAt: age(30)},
		{ID: "c4", CreatedAt: age(1)},
	}

	SortOldestFirst(containers)

	// Старшие первыми: 30, 10, 5, 1
	wantOrder := []string{"c1", "c2", "c3", "c4"}
	for i, want := range wantOrder {
		if containers[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, containers[i].ID)
		}
	}
}

func TestSortOldestFirst_TieBreaksByID(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	containers := []ManagedContainer{
		{ID: "zzz", CreatedAt: created},
		{ID: "aaa", CreatedAt: created},
		{ID: "mmm", CreatedAt: created},
	}

	SortOldestFirst(containers)

	// При равном времени создания порядок детерминирован по ID
	wantOrder := []string{"aaa", "mmm", "zzz"}
	for i, want := range wantOrder {
		if containers[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, containers[i].ID)
		}
	}
}

func TestContainerState_IsTerminal(t *testing.T) {
	if ContainerStateRunning.IsTerminal() {
		t.Error("running must not be terminal")
	}
	if ContainerStateStopping.IsTerminal() {
		t.Error("stopping must not be terminal")
	}
	if !ContainerStateStopped.IsTerminal() {
		t.Error("stopped must be terminal")
	}
}
