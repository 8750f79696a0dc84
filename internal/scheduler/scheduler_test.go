package scheduler

import (
	"context"
	"math"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/timerelay-go/internal/core/domain"
	"github.com/yndnr/timerelay-go/internal/object"
	"github.com/yndnr/timerelay-go/internal/reactor"
	"github.com/yndnr/timerelay-go/internal/telemetry/metric"
)

// ============================================================================
// Helpers
// ============================================================================

type dispatch struct {
	task   int64
	target string
	data   string
}

type recorder struct {
	mu    sync.Mutex
	calls []dispatch
	ch    chan dispatch
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan dispatch, 64)}
}

func (r *recorder) Dispatch(taskID int64, target string, bufs net.Buffers) {
	var b []byte
	for _, p := range bufs {
		b = append(b, p...)
	}
	d := dispatch{task: taskID, target: target, data: string(b)}
	r.mu.Lock()
	r.calls = append(r.calls, d)
	r.mu.Unlock()
	select {
	case r.ch <- d:
	default:
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	loop    *reactor.Loop
	sched   *Scheduler
	rec     *recorder
	shared  *object.Shared
	metrics *metric.Registry
}

func newHarness(t *testing.T, now func() time.Time) *harness {
	t.Helper()
	h := &harness{
		loop:    reactor.New(),
		rec:     newRecorder(),
		shared:  object.NewShared(),
		metrics: metric.NewRegistry(),
	}
	h.sched = New(h.loop, h.rec, h.shared, Config{Now: now}, discard(), h.metrics)

	ctx, cancel := context.WithCancel(context.Background())
	go h.loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.loop.Done()
	})
	return h
}

// do runs fn on the loop and waits for it.
func (h *harness) do(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	if !h.loop.Post(func() { fn(); close(done) }) {
		t.Fatal("loop stopped")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not run posted function")
	}
}

// ============================================================================
// Parsing
// ============================================================================

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"once", ModeOnce},
		{"ONCE", ModeOnce},
		{"Once", ModeOnce},
		{"repeat", ModeRepeat},
		{"", ModeRepeat},
		{"onc", ModeRepeat},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"127.0.0.1:8001", "127.0.0.1:8001", false},
		{"localhost:1", "localhost:1", false},
		{":8001", ":8001", false},
		{"[::1]:8001", "[::1]:8001", false},
		{"host:65535", "host:65535", false},
		{"host", "", true},
		{"host:0", "", true},
		{"host:65536", "", true},
		{"host:abc", "", true},
		{"host:", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTarget(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !domain.IsDomainError(err, "TR-ARG-4003") {
			t.Errorf("ParseTarget(%q) error code = %q", tt.in, domain.GetErrorCode(err))
		}
		if got != tt.want {
			t.Errorf("ParseTarget(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDelay(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	tests := []struct {
		name    string
		trigger int64
		want    time.Duration
	}{
		{"future absolute", 1_700_000_000_250, 250 * time.Millisecond},
		{"relative", 100, 100 * time.Millisecond},
		{"past absolute", 1_699_999_999_000, 1_699_999_999_000 * time.Millisecond},
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"far future", 5_000_000_000_000, 3_300_000_000_000 * time.Millisecond},
		{"beyond range clamped", 999_999_999_999_999, time.Duration(maxDelayMs) * time.Millisecond},
		{"max int64 clamped", math.MaxInt64, time.Duration(maxDelayMs) * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Delay(tt.trigger, now)
			if got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.trigger, got, tt.want)
			}
			if got < 0 {
				t.Errorf("Delay(%d) = %v, want non-negative", tt.trigger, got)
			}
		})
	}
}

// ============================================================================
// Scheduler
// ============================================================================

func TestSchedule_OnceFiresExactlyOnce(t *testing.T) {
	h := newHarness(t, nil)

	payload := object.NewStringFrom("hello")
	var task *Task
	h.do(t, func() {
		var err error
		task, err = h.sched.Schedule(ModeOnce, 10, "127.0.0.1:8001", payload)
		if err != nil {
			t.Errorf("Schedule() error = %v", err)
		}
	})
	if task == nil {
		t.Fatal("Schedule() returned nil task")
	}
	if task.ID != 0 {
		t.Errorf("first task id = %d, want 0", task.ID)
	}

	select {
	case d := <-h.rec.ch:
		if d.data != "$5\r\nhello\r\n" {
			t.Errorf("forwarded %q, want %q", d.data, "$5\r\nhello\r\n")
		}
		if d.target != "127.0.0.1:8001" {
			t.Errorf("target = %q", d.target)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire")
	}

	time.Sleep(50 * time.Millisecond)
	if n := h.rec.count(); n != 1 {
		t.Errorf("dispatches = %d, want 1", n)
	}

	h.do(t, func() {
		if h.sched.Pending() != 0 {
			t.Errorf("Pending() = %d, want 0", h.sched.Pending())
		}
		if payload.RefCount() != 1 {
			t.Errorf("payload refcount = %d, want 1 after release", payload.RefCount())
		}
		if h.shared.CRLF.RefCount() != 1 {
			t.Errorf("crlf refcount = %d, want 1 after release", h.shared.CRLF.RefCount())
		}
	})
}

func TestSchedule_RepeatUntilCancelled(t *testing.T) {
	h := newHarness(t, nil)

	payload := object.NewStringFrom("tick")
	var id int64
	h.do(t, func() {
		task, err := h.sched.Schedule(ModeRepeat, 5, "127.0.0.1:8001", payload)
		if err != nil {
			t.Errorf("Schedule() error = %v", err)
			return
		}
		id = task.ID
	})

	for i := 0; i < 3; i++ {
		select {
		case <-h.rec.ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("repeat firing %d did not happen", i)
		}
	}

	h.do(t, func() {
		if !h.sched.Cancel(id) {
			t.Error("Cancel() = false for live task")
		}
		if h.sched.Cancel(id) {
			t.Error("second Cancel() = true")
		}
	})
	after := h.rec.count()
	time.Sleep(50 * time.Millisecond)
	if n := h.rec.count(); n != after {
		t.Errorf("dispatches after cancel = %d, want %d", n, after)
	}

	h.do(t, func() {
		if payload.RefCount() != 1 {
			t.Errorf("payload refcount = %d, want 1", payload.RefCount())
		}
	})
	if got := testutil.ToFloat64(h.metrics.TasksCancelled); got != 1 {
		t.Errorf("tasks cancelled = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.metrics.TasksScheduled.WithLabelValues("repeat")); got != 1 {
		t.Errorf("repeat tasks scheduled = %v, want 1", got)
	}
}

func TestSchedule_CancelBeforeDue(t *testing.T) {
	h := newHarness(t, nil)

	h.do(t, func() {
		task, err := h.sched.Schedule(ModeOnce, 50, "127.0.0.1:8001", object.NewStringFrom("x"))
		if err != nil {
			t.Errorf("Schedule() error = %v", err)
			return
		}
		h.sched.Cancel(task.ID)
	})

	time.Sleep(120 * time.Millisecond)
	if n := h.rec.count(); n != 0 {
		t.Errorf("dispatches = %d, want 0", n)
	}
}

func TestSchedule_FutureTrigger(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	h := newHarness(t, func() time.Time { return base })

	h.do(t, func() {
		task, err := h.sched.Schedule(ModeRepeat, base.UnixMilli()+3000, "127.0.0.1:8001", object.NewStringFrom("x"))
		if err != nil {
			t.Errorf("Schedule() error = %v", err)
			return
		}
		if task.Period != 3*time.Second {
			t.Errorf("Period = %v, want 3s", task.Period)
		}
		h.sched.Cancel(task.ID)
	})
}

func TestSchedule_RepeatPeriodFloor(t *testing.T) {
	h := newHarness(t, nil)

	h.do(t, func() {
		task, err := h.sched.Schedule(ModeRepeat, 0, "127.0.0.1:8001", object.NewStringFrom("x"))
		if err != nil {
			t.Errorf("Schedule() error = %v", err)
			return
		}
		if task.Period != time.Millisecond {
			t.Errorf("Period = %v, want 1ms floor", task.Period)
		}
		h.sched.Cancel(task.ID)
	})
}

func TestSchedule_IdsIncrease(t *testing.T) {
	h := newHarness(t, nil)

	h.do(t, func() {
		var last int64 = -1
		for i := 0; i < 5; i++ {
			task, err := h.sched.Schedule(ModeOnce, 60_000, "127.0.0.1:8001", object.NewStringFrom("x"))
			if err != nil {
				t.Errorf("Schedule() error = %v", err)
				return
			}
			if task.ID <= last {
				t.Errorf("id %d not greater than %d", task.ID, last)
			}
			last = task.ID
		}
		if h.sched.Pending() != 5 {
			t.Errorf("Pending() = %d, want 5", h.sched.Pending())
		}
	})
}

func TestSchedule_InvalidTarget(t *testing.T) {
	h := newHarness(t, nil)

	payload := object.NewStringFrom("x")
	h.do(t, func() {
		_, err := h.sched.Schedule(ModeOnce, 0, "no-port", payload)
		if !domain.IsDomainError(err, domain.ErrInvalidTarget.Code) {
			t.Errorf("Schedule() error = %v, want invalid target", err)
		}
		if payload.RefCount() != 1 {
			t.Errorf("payload refcount = %d, want 1", payload.RefCount())
		}
		if h.sched.Pending() != 0 {
			t.Errorf("Pending() = %d, want 0", h.sched.Pending())
		}
	})
}

func TestScheduler_Close(t *testing.T) {
	h := newHarness(t, nil)

	payload := object.NewStringFrom("x")
	h.do(t, func() {
		for i := 0; i < 3; i++ {
			if _, err := h.sched.Schedule(ModeRepeat, 60_000, "127.0.0.1:8001", payload); err != nil {
				t.Errorf("Schedule() error = %v", err)
				return
			}
		}
		h.sched.Close()

		if h.sched.Pending() != 0 {
			t.Errorf("Pending() = %d after Close, want 0", h.sched.Pending())
		}
		if payload.RefCount() != 1 {
			t.Errorf("payload refcount = %d, want 1", payload.RefCount())
		}
		_, err := h.sched.Schedule(ModeOnce, 0, "127.0.0.1:8001", payload)
		if !domain.IsDomainError(err, domain.ErrScheduleFailed.Code) {
			t.Errorf("Schedule() after Close error = %v, want schedule failed", err)
		}
	})
}

func TestTask_Size(t *testing.T) {
	shared := object.NewShared()
	task := &Task{Message: frame(object.NewStringFrom("abc"), shared.CRLF)}
	if got := task.Size(); got != len("$3\r\nabc\r\n") {
		t.Errorf("Size() = %d, want %d", got, len("$3\r\nabc\r\n"))
	}
	task.release()
	if task.Message != nil {
		t.Error("release() should clear the message")
	}
}
