package eventloop

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven explicitly by tests. Callbacks run on the
// caller's goroutine when time is advanced.
type Manual struct {
	now     time.Time
	seq     int
	pending []*manualTask

	// DeferOffload queues offloaded work until FinishOffloads is called,
	// so tests can observe an in-flight camera call
	DeferOffload bool
	offloads     []func()
}

type manualTask struct {
	due       time.Time
	seq       int
	fn        func()
	cancelled bool
	fired     bool
}

func (t *manualTask) Cancel() {
	t.cancelled = true
}

// NewManual creates a manual scheduler whose clock starts at start
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the scheduler's clock
func (m *Manual) Now() time.Time {
	return m.now
}

// Post runs fn immediately
func (m *Manual) Post(fn func()) {
	fn()
}

// After records fn to run once the clock reaches now+d
func (m *Manual) After(d time.Duration, fn func()) Handle {
	m.seq++
	task := &manualTask{due: m.now.Add(d), seq: m.seq, fn: fn}
	m.pending = append(m.pending, task)
	return task
}

// Offload runs work and then synchronously, or queues them when
// DeferOffload is set
func (m *Manual) Offload(work func() error, then func(error)) {
	run := func() { then(protect(work)) }
	if m.DeferOffload {
		m.offloads = append(m.offloads, run)
		return
	}
	run()
}

// InFlight returns the number of deferred offloads
func (m *Manual) InFlight() int {
	return len(m.offloads)
}

// FinishOffloads completes every deferred offload in order
func (m *Manual) FinishOffloads() {
	for len(m.offloads) > 0 {
		run := m.offloads[0]
		m.offloads = m.offloads[1:]
		run()
	}
}

// Pending returns the number of scheduled callbacks that have neither
// fired nor been cancelled
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.pending {
		if !t.cancelled && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running due callbacks in order.
// Callbacks scheduled while advancing run too if they fall due in time.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		task := m.next(target)
		if task == nil {
			break
		}
		m.now = task.due
		task.fired = true
		task.fn()
	}
	m.now = target
	m.compact()
}

func (m *Manual) next(target time.Time) *manualTask {
	var due []*manualTask
	for _, t := range m.pending {
		if !t.cancelled && !t.fired && !t.due.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].seq < due[j].seq
		}
		return due[i].due.Before(due[j].due)
	})
	return due[0]
}

func (m *Manual) compact() {
	kept := m.pending[:0]
	for _, t := range m.pending {
		if !t.cancelled && !t.fired {
			kept = append(kept, t)
		}
	}
	m.pending = kept
}
