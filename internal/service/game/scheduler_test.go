package game_test

import (
	"testing"
	"time"

	"memory-service/internal/service/game"
)

func TestTaskRegistryRunsOnce(t *testing.T) {
	clock := &manualClock{}
	reg := game.NewTaskRegistry(clock)

	runs := 0
	reg.Schedule("a", time.Second, func() { runs++ })
	if reg.Pending("a") != 1 {
		t.Fatalf("expected 1 pending task, got %d", reg.Pending("a"))
	}

	clock.Advance(time.Second)
	clock.Advance(time.Second)
	if runs != 1 {
		t.Fatalf("expected task to run once, ran %d times", runs)
	}
	if reg.Pending("a") != 0 {
		t.Fatalf("expected no pending tasks, got %d", reg.Pending("a"))
	}
}

func TestTaskRegistryCancelAllIsPerSession(t *testing.T) {
	clock := &manualClock{}
	reg := game.NewTaskRegistry(clock)

	var ranA, ranB int
	reg.Schedule("a", time.Second, func() { ranA++ })
	reg.Schedule("a", 2*time.Second, func() { ranA++ })
	reg.Schedule("b", time.Second, func() { ranB++ })

	if n := reg.CancelAll("a"); n != 2 {
		t.Fatalf("expected 2 cancelled tasks, got %d", n)
	}
	clock.Advance(time.Minute)

	if ranA != 0 {
		t.Fatalf("cancelled tasks ran %d times", ranA)
	}
	if ranB != 1 {
		t.Fatalf("other session's task should run once, ran %d", ranB)
	}
	if n := reg.CancelAll("a"); n != 0 {
		t.Fatalf("second CancelAll should be a no-op, got %d", n)
	}
}

func TestTaskRegistryDropsCallbackThatRacesCancel(t *testing.T) {
	clock := &manualClock{}
	reg := game.NewTaskRegistry(clock)

	ran := false
	reg.Schedule("a", time.Second, func() { ran = true })

	// Simulate a timer that already fired its goroutine before Stop.
	var stale func()
	clock.mu.Lock()
	stale = clock.timers[0].fn
	clock.mu.Unlock()

	reg.CancelAll("a")
	stale()
	if ran {
		t.Fatalf("callback ran after CancelAll")
	}
}
