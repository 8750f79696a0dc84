package scheduler

import (
	"log/slog"
	"math"
	"net"
	"time"

	"github.com/yndnr/timerelay-go/internal/core/domain"
	"github.com/yndnr/timerelay-go/internal/object"
	"github.com/yndnr/timerelay-go/internal/reactor"
	"github.com/yndnr/timerelay-go/internal/telemetry/metric"
)

// Timers is the timer half of the event loop.
type Timers interface {
	CreateTimer(delay time.Duration, fn reactor.TimerFunc) int64
	DeleteTimer(id int64) bool
}

// Dispatcher sends one framed payload to target without blocking the caller.
type Dispatcher interface {
	Dispatch(taskID int64, target string, bufs net.Buffers)
}

// Config holds scheduler configuration.
type Config struct {
	// MinRepeatPeriod is the floor applied to repeat periods.
	MinRepeatPeriod time.Duration

	// Now returns the wall clock. Defaults to time.Now.
	Now func() time.Time
}

// Scheduler owns scheduled tasks. All methods must be called on the loop
// goroutine.
type Scheduler struct {
	timers  Timers
	fwd     Dispatcher
	shared  *object.Shared
	cfg     Config
	logger  *slog.Logger
	metrics *metric.Registry

	tasks  map[int64]*Task
	closed bool
}

// New creates a scheduler.
func New(timers Timers, fwd Dispatcher, shared *object.Shared, cfg Config, logger *slog.Logger, metrics *metric.Registry) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MinRepeatPeriod <= 0 {
		cfg.MinRepeatPeriod = time.Millisecond
	}
	return &Scheduler{
		timers:  timers,
		fwd:     fwd,
		shared:  shared,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tasks:   make(map[int64]*Task),
	}
}

// maxDelayMs is the largest delay representable as a time.Duration.
const maxDelayMs = math.MaxInt64 / int64(time.Millisecond)

// Delay converts an RPC trigger time into a timer delay. A trigger in the
// future (Unix milliseconds) yields the time remaining; anything else is
// taken as a delay in milliseconds. Results are clamped to
// [0, maxDelayMs] milliseconds.
func Delay(triggerMs int64, now time.Time) time.Duration {
	nowMs := now.UnixMilli()
	d := triggerMs
	if triggerMs > nowMs {
		d = triggerMs - nowMs
	}
	if d < 0 {
		d = 0
	}
	if d > maxDelayMs {
		d = maxDelayMs
	}
	return time.Duration(d) * time.Millisecond
}

// Schedule registers a task forwarding payload to target. The task takes
// its own reference on payload.
func (s *Scheduler) Schedule(mode Mode, triggerMs int64, target string, payload *object.Value) (*Task, error) {
	addr, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	if s.closed {
		return nil, domain.ErrScheduleFailed
	}

	now := s.cfg.Now()
	delay := Delay(triggerMs, now)

	task := &Task{
		Mode:    mode,
		Period:  delay,
		Target:  addr,
		Created: now,
		Message: frame(payload, s.shared.CRLF),
	}
	if mode == ModeRepeat && task.Period < s.cfg.MinRepeatPeriod {
		task.Period = s.cfg.MinRepeatPeriod
	}

	task.ID = s.timers.CreateTimer(delay, func(int64) time.Duration {
		return s.onDue(task)
	})
	s.tasks[task.ID] = task

	s.metrics.TasksScheduled.WithLabelValues(mode.String()).Inc()
	s.logger.Debug("task scheduled",
		"task", task.ID,
		"mode", mode.String(),
		"delay", delay,
		"target", addr,
		"size", task.Size(),
	)
	return task, nil
}

// Cancel removes a pending task. It reports whether the task existed.
func (s *Scheduler) Cancel(id int64) bool {
	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	s.timers.DeleteTimer(id)
	delete(s.tasks, id)
	task.release()

	s.metrics.TasksCancelled.Inc()
	s.logger.Debug("task cancelled", "task", id)
	return true
}

// Lookup returns a pending task.
func (s *Scheduler) Lookup(id int64) (*Task, bool) {
	t, ok := s.tasks[id]
	return t, ok
}

// Pending returns the number of live tasks.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Close cancels every task and rejects new ones.
func (s *Scheduler) Close() {
	s.closed = true
	for id, task := range s.tasks {
		s.timers.DeleteTimer(id)
		task.release()
		delete(s.tasks, id)
	}
}

func (s *Scheduler) onDue(task *Task) time.Duration {
	s.fwd.Dispatch(task.ID, task.Target, task.buffers())

	if task.Mode == ModeRepeat {
		return task.Period
	}
	delete(s.tasks, task.ID)
	task.release()
	return reactor.NoMore
}
