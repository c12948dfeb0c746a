// Package task provides one-shot cancelable tasks for lifecycle coordination.
//
// A Task wraps a single asynchronous operation with explicit states
// (pending, running, executed, cancelled). It is used by the timeline engine
// to guard segment loads against duplicate execution and to make subsystem
// initialization cancelable: tearing an owner down mid-initialization settles
// the task to a cancelled state without panicking or leaking goroutines.
//
// A Delayed task arms a callback after a fixed delay and can be re-armed or
// cancelled at any time. It backs auto-clearing flags such as the timeline's
// "scrolling" indicator.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/mosaicview/mosaic/pkg/errors"
)

// ErrCancelled is returned by Run and Wait when the task was cancelled
// before or during execution.
var ErrCancelled = errors.New(errors.ErrCodeCancelled, "task cancelled")

// State describes the lifecycle position of a Task.
type State int

// Task states. A task moves Pending → Running → Executed, or to Cancelled
// from Pending (directly) or Running (when its context is cancelled).
const (
	StatePending State = iota
	StateRunning
	StateExecuted
	StateCancelled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateExecuted:
		return "executed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is a one-shot asynchronous operation.
//
// Run executes the wrapped function exactly once; concurrent and subsequent
// calls wait for (or return) the first execution's result. Cancel aborts a
// pending task immediately and signals a running one through its context.
type Task struct {
	mu     sync.Mutex
	fn     func(context.Context) error
	state  State
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a pending task wrapping fn. The function is not invoked until
// Run is called.
func New(fn func(context.Context) error) *Task {
	return &Task{
		fn:   fn,
		done: make(chan struct{}),
	}
}

// Run executes the task function once and returns its error.
//
// If the task is already running, Run blocks until it settles and returns the
// recorded result. If it has already executed, the recorded result is returned
// without re-running. A cancelled task returns ErrCancelled.
func (t *Task) Run(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case StateCancelled:
		t.mu.Unlock()
		return ErrCancelled
	case StateExecuted:
		err := t.err
		t.mu.Unlock()
		return err
	case StateRunning:
		t.mu.Unlock()
		return t.Wait(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.state = StateRunning
	t.cancel = cancel
	t.mu.Unlock()

	err := t.fn(runCtx)
	interrupted := runCtx.Err() != nil
	cancel()

	t.mu.Lock()
	if err != nil && (interrupted || errors.Is(err, errors.ErrCodeCancelled)) {
		t.state = StateCancelled
		t.err = ErrCancelled
	} else {
		t.state = StateExecuted
		t.err = err
	}
	err = t.err
	close(t.done)
	t.mu.Unlock()
	return err
}

// Cancel aborts the task. A pending task settles to Cancelled immediately;
// a running task has its context cancelled and settles when its function
// returns. Cancelling an executed task is a no-op.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StatePending:
		t.state = StateCancelled
		t.err = ErrCancelled
		close(t.done)
	case StateRunning:
		if t.cancel != nil {
			t.cancel()
		}
	}
}

// Wait blocks until the task settles (executed or cancelled) or ctx expires.
// It returns the task's recorded error, or the context error on timeout.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		t.mu.Lock()
		err := t.err
		t.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Started reports whether the task has begun (or finished) executing.
// This is the idempotency check used by segment loads: a load whose task has
// started must not be re-entered.
func (t *Task) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateRunning || t.state == StateExecuted
}

// Err returns the recorded result of a settled task, nil otherwise.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateExecuted || t.state == StateCancelled {
		return t.err
	}
	return nil
}

// Delayed invokes a callback after a fixed delay. Arming an already-armed
// task restarts the countdown; Cancel stops it without firing.
//
// The callback runs on the timer's goroutine, so it must do its own locking.
type Delayed struct {
	mu    sync.Mutex
	d     time.Duration
	fn    func()
	timer *time.Timer
}

// NewDelayed creates a delayed task that fires fn after d once armed.
func NewDelayed(d time.Duration, fn func()) *Delayed {
	return &Delayed{d: d, fn: fn}
}

// Arm starts (or restarts) the countdown.
func (d *Delayed) Arm() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Reset(d.d)
		return
	}
	d.timer = time.AfterFunc(d.d, d.fn)
}

// Cancel stops the countdown if it is running. The callback does not fire
// until the task is armed again.
func (d *Delayed) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
