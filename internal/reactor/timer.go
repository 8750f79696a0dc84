package reactor

import "time"

// NoMore is returned by a TimerFunc that must not be re-armed.
const NoMore time.Duration = -1

// TimerFunc runs on the loop goroutine when its timer is due. It returns the
// delay until the next firing, or NoMore.
type TimerFunc func(id int64) time.Duration

type timer struct {
	id    int64
	when  time.Time
	fn    TimerFunc
	index int
}

// timerHeap orders timers by deadline, then by id.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].id < h[j].id
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
