// Package reactor provides the single-goroutine event loop that owns all
// server state.
//
// Other goroutines never touch loop-owned state directly: they hand work to
// the loop with Post. Timers are registered and cancelled from the loop
// goroutine itself and fire there, one at a time, between posted events.
package reactor

import (
	"container/heap"
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// DefaultQueueSize is the capacity of the posted-event queue.
const DefaultQueueSize = 4096

// ErrStopped is returned by Run when the loop was already run once.
var ErrStopped = errors.New("reactor: loop stopped")

// Loop is a single-threaded event loop.
type Loop struct {
	events  chan func()
	done    chan struct{}
	started atomic.Bool

	timers timerHeap
	byID   map[int64]*timer
	nextID int64

	deferred []func()

	now func() time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets the capacity of the posted-event queue.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.events = make(chan func(), n)
		}
	}
}

// WithClock overrides the time source used for timer deadlines.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// New creates a loop. Call Run to start it.
func New(opts ...Option) *Loop {
	l := &Loop{
		events: make(chan func(), DefaultQueueSize),
		done:   make(chan struct{}),
		byID:   make(map[int64]*timer),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post schedules fn to run on the loop goroutine. It may be called from any
// goroutine. It returns false if the loop has stopped and fn will never run.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Done returns a channel closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes posted events and due timers until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrStopped
	}
	defer close(l.done)

	wake := time.NewTimer(time.Hour)
	defer wake.Stop()

	for {
		l.runDueTimers()
		l.runDeferred()

		if !wake.Stop() {
			select {
			case <-wake.C:
			default:
			}
		}
		armed := false
		if len(l.timers) > 0 {
			wake.Reset(l.timers[0].when.Sub(l.now()))
			armed = true
		}

		var wakeC <-chan time.Time
		if armed {
			wakeC = wake.C
		}

		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.events:
			fn()
			l.runDeferred()
		case <-wakeC:
		}
	}
}

// Defer queues fn to run on the loop once the current event or timer pass
// has finished, before the loop waits again. Unlike Post it never blocks,
// so loop-side code uses it to schedule follow-up work for itself. It must
// be called from the loop goroutine.
func (l *Loop) Defer(fn func()) {
	l.deferred = append(l.deferred, fn)
}

// runDeferred drains the deferred queue, including work deferred by the
// functions it runs.
func (l *Loop) runDeferred() {
	for len(l.deferred) > 0 {
		fn := l.deferred[0]
		l.deferred[0] = nil
		l.deferred = l.deferred[1:]
		fn()
	}
}

// CreateTimer registers fn to run after delay and returns its id. Ids start
// at 0 and are never reused. It must be called from the loop goroutine (or
// before Run).
func (l *Loop) CreateTimer(delay time.Duration, fn TimerFunc) int64 {
	if delay < 0 {
		delay = 0
	}
	t := &timer{
		id:   l.nextID,
		when: l.now().Add(delay),
		fn:   fn,
	}
	l.nextID++
	heap.Push(&l.timers, t)
	l.byID[t.id] = t
	return t.id
}

// DeleteTimer cancels a pending timer. It reports whether the id was
// pending. It must be called from the loop goroutine.
func (l *Loop) DeleteTimer(id int64) bool {
	t, ok := l.byID[id]
	if !ok {
		return false
	}
	delete(l.byID, id)
	if t.index >= 0 {
		heap.Remove(&l.timers, t.index)
	}
	return true
}

// Pending returns the number of armed timers.
func (l *Loop) Pending() int {
	return len(l.byID)
}

// runDueTimers fires every timer due at entry. Re-armed timers go back on
// the heap only after the pass, so a zero period cannot starve the loop.
func (l *Loop) runDueTimers() {
	now := l.now()
	var rearm []*timer
	for len(l.timers) > 0 {
		t := l.timers[0]
		if t.when.After(now) {
			break
		}
		heap.Pop(&l.timers)

		next := t.fn(t.id)

		// The callback may have deleted its own timer.
		if _, live := l.byID[t.id]; !live {
			continue
		}
		if next < 0 {
			delete(l.byID, t.id)
			continue
		}
		t.when = l.now().Add(next)
		rearm = append(rearm, t)
	}
	for _, t := range rearm {
		heap.Push(&l.timers, t)
	}
}
