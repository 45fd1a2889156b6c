package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"poolintake/internal/modules/onboarding/service"
)

func TestAutosavePersistsLatestValue(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	current := 0
	saved := 0
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	calls := 0

	queue := service.NewAutosaveQueue(func(context.Context) error {
		mu.Lock()
		calls++
		first := calls == 1
		value := current
		mu.Unlock()
		if first {
			close(firstStarted)
			<-release // hold the first write in flight
			mu.Lock()
			value = current
			mu.Unlock()
		}
		mu.Lock()
		saved = value
		mu.Unlock()
		return nil
	})
	defer queue.Close()

	mu.Lock()
	current = 1
	mu.Unlock()
	queue.Schedule()
	<-firstStarted

	// A newer edit arrives while the older write is still in flight.
	mu.Lock()
	current = 2
	mu.Unlock()
	queue.Schedule()
	close(release)

	if err := queue.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if saved != 2 {
		t.Fatalf("stale write won: saved %d, want 2", saved)
	}
}

func TestAutosaveCoalescesBursts(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	calls := 0
	gate := make(chan struct{})
	queue := service.NewAutosaveQueue(func(context.Context) error {
		<-gate
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})
	defer queue.Close()

	for i := 0; i < 25; i++ {
		queue.Schedule()
	}
	close(gate)
	if err := queue.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	// A burst scheduled before any write ran coalesces to at most two writes:
	// one in flight plus one re-check.
	if calls > 2 {
		t.Fatalf("burst not coalesced: %d writes", calls)
	}
}

func TestFlushReportsSaveError(t *testing.T) {
	t.Parallel()
	boom := fmt.Errorf("disk full")
	queue := service.NewAutosaveQueue(func(context.Context) error { return boom })
	defer queue.Close()
	queue.Schedule()
	err := queue.Flush(context.Background())
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("flush must surface the save error, got %v", err)
	}
}

func TestScheduleAfterCloseIsNoop(t *testing.T) {
	t.Parallel()
	queue := service.NewAutosaveQueue(func(context.Context) error { return nil })
	if err := queue.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	queue.Schedule() // must not panic on a closed queue
	time.Sleep(10 * time.Millisecond)
}
