package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/monitoring"
)

type waitResult struct {
	value interface{}
	err   error
}

// Waiter settles exactly once: on the awaited event, a timeout, an abort
// event, context cancellation or Dispose. Every armed listener and timer is
// detached when it settles, and anything armed afterwards is detached at once.
type Waiter struct {
	event   string
	metrics *monitoring.Metrics

	mu      sync.Mutex
	settled bool
	detach  []func()
	result  chan waitResult
}

// NewWaiter creates a waiter; event names the awaited event in metrics.
func NewWaiter(event string) *Waiter {
	return &Waiter{
		event:  event,
		result: make(chan waitResult, 1),
	}
}

// WithMetrics records the settlement outcome.
func (w *Waiter) WithMetrics(metrics *monitoring.Metrics) *Waiter {
	w.metrics = metrics
	return w
}

// RejectOnTimeout fails the wait with err after d. d <= 0 arms nothing.
func (w *Waiter) RejectOnTimeout(d time.Duration, err error) {
	if d <= 0 {
		return
	}
	timer := time.AfterFunc(d, func() {
		w.settle(waitResult{err: err}, monitoring.WaitTimeout)
	})
	w.track(func() { timer.Stop() })
}

// RejectOnEvent fails the wait with err when event fires on emitter.
func (w *Waiter) RejectOnEvent(emitter Emitter, event string, err error) {
	id := emitter.On(event, func(interface{}) {
		w.settle(waitResult{err: err}, monitoring.WaitAborted)
	})
	w.track(func() { emitter.Off(event, id) })
}

// Arm registers the primary listener without blocking. An occurrence the
// predicate rejects leaves the listener armed.
func (w *Waiter) Arm(emitter Emitter, event string, predicate func(payload interface{}) bool) {
	id := emitter.On(event, func(payload interface{}) {
		if predicate != nil {
			ok, err := safePredicate(predicate, payload)
			if err != nil {
				w.settle(waitResult{err: err}, monitoring.WaitAborted)
				return
			}
			if !ok {
				return
			}
		}
		w.settle(waitResult{value: payload}, monitoring.WaitMatched)
	})
	w.track(func() { emitter.Off(event, id) })
}

// Wait blocks until the waiter settles or ctx is done.
func (w *Waiter) Wait(ctx context.Context) (interface{}, error) {
	select {
	case r := <-w.result:
		return r.value, r.err
	case <-ctx.Done():
		w.settle(waitResult{err: ctx.Err()}, monitoring.WaitCancelled)
		r := <-w.result
		return r.value, r.err
	}
}

// WaitForEvent arms the primary listener and waits.
func (w *Waiter) WaitForEvent(ctx context.Context, emitter Emitter, event string, predicate func(payload interface{}) bool) (interface{}, error) {
	w.Arm(emitter, event, predicate)
	return w.Wait(ctx)
}

// Dispose detaches everything. A waiter that had not settled yet settles
// with ErrWaiterDisposed. Safe to call any number of times.
func (w *Waiter) Dispose() {
	w.settle(waitResult{err: ErrWaiterDisposed}, monitoring.WaitDisposed)
}

// Settled reports whether the waiter has resolved.
func (w *Waiter) Settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settled
}

func (w *Waiter) track(detach func()) {
	w.mu.Lock()
	if w.settled {
		w.mu.Unlock()
		detach()
		return
	}
	w.detach = append(w.detach, detach)
	w.mu.Unlock()
}

func (w *Waiter) settle(r waitResult, outcome string) bool {
	w.mu.Lock()
	if w.settled {
		w.mu.Unlock()
		return false
	}
	w.settled = true
	detach := w.detach
	w.detach = nil
	w.mu.Unlock()

	// Detached before the result is visible, so a returned Wait leaves no
	// listener behind.
	for _, fn := range detach {
		fn()
	}
	w.result <- r
	if outcome != monitoring.WaitDisposed {
		w.metrics.RecordWait(w.event, outcome)
	}
	return true
}

func safePredicate(predicate func(interface{}) bool, payload interface{}) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, isErr := r.(error); isErr {
				err = fmt.Errorf("predicate panicked: %w", e)
			} else {
				err = errors.New(fmt.Sprint("predicate panicked: ", r))
			}
		}
	}()
	return predicate(payload), nil
}
