package wizard

import (
	"context"
	"sync"

	"poolintake/internal/modules/onboarding/service"
)

// Autosaver bridges the message-driven screen to the background save queue.
// Each edit replaces the pending push; the queue worker reads the newest one
// when it actually runs, so a slow store write can never clobber later edits.
type Autosaver struct {
	queue *service.AutosaveQueue

	mu   sync.Mutex
	push func(context.Context) error
}

func NewAutosaver() *Autosaver {
	a := &Autosaver{}
	a.queue = service.NewAutosaveQueue(func(ctx context.Context) error {
		a.mu.Lock()
		push := a.push
		a.mu.Unlock()
		if push == nil {
			return nil
		}
		return push(ctx)
	})
	return a
}

// Save records the latest push and wakes the worker.
func (a *Autosaver) Save(push func(context.Context) error) {
	a.mu.Lock()
	a.push = push
	a.mu.Unlock()
	a.queue.Schedule()
}

// Flush waits until every scheduled save has landed.
func (a *Autosaver) Flush(ctx context.Context) error {
	return a.queue.Flush(ctx)
}

func (a *Autosaver) Close() error {
	return a.queue.Close()
}
