package search

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned to a waiter whose call was replaced by a newer
// one before the delay elapsed.
var ErrSuperseded = errors.New("search: superseded by a newer query")

// Debouncer keeps a single pending timer. Every Do cancels and replaces the
// pending call; only the last call within the delay runs.
type Debouncer struct {
	delay time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	superseded chan struct{}
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Do waits for the delay and then runs fn, unless another Do or Cancel
// arrives first.
func (d *Debouncer) Do(ctx context.Context, fn func(context.Context) error) error {
	fire := make(chan struct{})
	superseded := make(chan struct{})

	d.mu.Lock()
	d.stopLocked()
	d.superseded = superseded
	d.timer = time.AfterFunc(d.delay, func() { close(fire) })
	d.mu.Unlock()

	select {
	case <-superseded:
		return ErrSuperseded
	case <-ctx.Done():
		d.mu.Lock()
		if d.superseded == superseded {
			d.stopLocked()
		}
		d.mu.Unlock()
		return ctx.Err()
	case <-fire:
	}

	d.mu.Lock()
	if d.superseded != superseded {
		d.mu.Unlock()
		return ErrSuperseded
	}
	d.timer = nil
	d.superseded = nil
	d.mu.Unlock()

	return fn(ctx)
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.superseded != nil {
		close(d.superseded)
		d.superseded = nil
	}
}
