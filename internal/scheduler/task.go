package scheduler

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/timerelay-go/internal/core/domain"
	"github.com/yndnr/timerelay-go/internal/object"
)

// Mode says whether a task fires once or periodically.
type Mode uint8

const (
	ModeOnce Mode = iota
	ModeRepeat
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeOnce {
		return "once"
	}
	return "repeat"
}

// ParseMode maps "once" (any case) to ModeOnce and anything else to ModeRepeat.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "once") {
		return ModeOnce
	}
	return ModeRepeat
}

// ParseTarget validates a host:port worker address. The port follows the
// last colon and must be in 1..65535. An empty host dials the local system.
func ParseTarget(s string) (string, error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "", domain.ErrInvalidTarget.WithDetails(s)
	}
	port, err := strconv.Atoi(s[i+1:])
	if err != nil || port < 1 || port > 65535 {
		return "", domain.ErrInvalidTarget.WithDetails(s)
	}
	host := strings.TrimSuffix(strings.TrimPrefix(s[:i], "["), "]")
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// Task is a scheduled forward. It is owned by the event loop.
type Task struct {
	ID      int64
	Mode    Mode
	Period  time.Duration
	Target  string
	Created time.Time

	// Message is the framed payload: a "$<len>\r\n" header, the payload
	// value and CRLF. Each element holds one reference.
	Message []*object.Value
}

// frame builds the message for payload, taking a reference on payload and crlf.
func frame(payload, crlf *object.Value) []*object.Value {
	header := object.NewStringFrom("$" + strconv.Itoa(payload.Len()) + "\r\n")
	payload.IncrRef()
	crlf.IncrRef()
	return []*object.Value{header, payload, crlf}
}

// buffers returns the message bytes for a forward. The slices alias the
// values' storage, which is never mutated.
func (t *Task) buffers() net.Buffers {
	bufs := make(net.Buffers, 0, len(t.Message))
	for _, v := range t.Message {
		bufs = append(bufs, v.Bytes())
	}
	return bufs
}

// Size returns the number of bytes forwarded per firing.
func (t *Task) Size() int {
	n := 0
	for _, v := range t.Message {
		n += v.Len()
	}
	return n
}

// release drops the task's references on its message.
func (t *Task) release() {
	for _, v := range t.Message {
		v.DecrRef()
	}
	t.Message = nil
}
