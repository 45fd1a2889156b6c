package service

import (
	"context"
	"sync"
)

// AutosaveQueue serializes snapshot persistence for the live-edit path. The
// source pattern saved on both a keystroke debounce and on field blur with no
// coordination, so an in-flight older write could land after a newer one.
// Here a single worker runs saves one at a time, and the save function reads
// the current state at execution time, so the newest value always wins and
// duplicate requests coalesce into one write.
type AutosaveQueue struct {
	save func(context.Context) error

	mu      sync.Mutex
	cond    *sync.Cond
	dirty   bool
	running bool
	closed  bool
	lastErr error

	wake chan struct{}
	done chan struct{}
}

// NewAutosaveQueue starts the worker. save must capture its snapshot when
// invoked, not when scheduled.
func NewAutosaveQueue(save func(context.Context) error) *AutosaveQueue {
	q := &AutosaveQueue{
		save: save,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

func (q *AutosaveQueue) loop() {
	defer close(q.done)
	for range q.wake {
		for {
			q.mu.Lock()
			if !q.dirty {
				q.running = false
				q.cond.Broadcast()
				q.mu.Unlock()
				break
			}
			q.dirty = false
			q.running = true
			q.mu.Unlock()

			err := q.save(context.Background())

			q.mu.Lock()
			q.lastErr = err
			q.mu.Unlock()
		}
	}
	q.mu.Lock()
	q.running = false
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Schedule requests a save. Requests arriving while a save is in flight
// coalesce; the worker re-checks after each write, so the final state on disk
// always reflects the latest request.
func (q *AutosaveQueue) Schedule() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.dirty = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until the queue is quiescent and returns the most recent save
// error, if any. Store writes are expected to be quick; ctx is checked
// between wakeups.
func (q *AutosaveQueue) Flush(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.dirty || q.running {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.cond.Wait()
	}
	return q.lastErr
}

// Close drains pending work and stops the worker.
func (q *AutosaveQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return q.lastErr
	}
	q.closed = true
	q.mu.Unlock()
	close(q.wake)
	<-q.done
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}
