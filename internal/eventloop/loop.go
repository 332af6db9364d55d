// Package eventloop provides the single logical thread of control on which
// every monitoring tick and user command runs.
//
// Callbacks posted to a Loop never overlap, so state touched only from
// callbacks needs no locking. Blocking work is moved off the loop with
// Offload and its completion is posted back.
package eventloop

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Handle cancels a scheduled callback
type Handle interface {
	Cancel()
}

// Scheduler is the task-scheduling surface the services depend on
type Scheduler interface {
	// Post queues fn to run on the loop
	Post(fn func())
	// After runs fn on the loop once d has elapsed, unless cancelled first
	After(d time.Duration, fn func()) Handle
	// Offload runs work on its own goroutine and posts then with its error
	Offload(work func() error, then func(error))
}

// Loop executes posted functions one at a time in FIFO order
type Loop struct {
	logger *slog.Logger
	tasks  chan func()
	done   chan struct{}
}

// New creates a loop; call Run to start executing tasks
func New(logger *slog.Logger, queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Loop{
		logger: logger.With("component", "eventloop"),
		tasks:  make(chan func(), queueSize),
		done:   make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled. Tasks still queued at that
// point are dropped.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Debug("event loop started")
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped")
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	fn()
}

// Post queues fn. It must not be called from a loop callback while the
// queue is full. After the loop has stopped it is a no-op.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// After schedules fn. Cancelling the handle guarantees fn will not run,
// even if the timer already fired and fn is waiting in the queue.
func (l *Loop) After(d time.Duration, fn func()) Handle {
	h := &timerHandle{}
	h.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if h.cancelled.Load() {
				return
			}
			fn()
		})
	})
	return h
}

// Offload runs work off the loop. A panic in work is reported to then as
// an error.
func (l *Loop) Offload(work func() error, then func(error)) {
	go func() {
		err := protect(work)
		l.Post(func() { then(err) })
	}()
}

type timerHandle struct {
	timer     *time.Timer
	cancelled atomic.Bool
}

func (h *timerHandle) Cancel() {
	h.cancelled.Store(true)
	h.timer.Stop()
}

func protect(work func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("offloaded work panicked: %v", r)
		}
	}()
	return work()
}
