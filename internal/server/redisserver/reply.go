package redisserver

import (
	"errors"
	"net"
	"strconv"

	"github.com/yndnr/timerelay-go/internal/core/domain"
	"github.com/yndnr/timerelay-go/internal/object"
)

// addReply queues v for transmission, taking a reference. If no write is
// pending it registers interest in the next writable event.
func (c *Conn) addReply(v *object.Value) {
	if c.closed {
		return
	}
	v.IncrRef()
	c.replies.PushBack(v)
	if !c.writing {
		c.writing = true
		c.srv.loop.Defer(c.onWritable)
	}
}

// addReplyString queues a freshly built reply.
func (c *Conn) addReplyString(s string) {
	v := object.NewStringFrom(s)
	c.addReply(v)
	v.DecrRef()
}

// addReplyBulk frames v as a bulk reply without copying its bytes.
func (c *Conn) addReplyBulk(v *object.Value) {
	c.addReplyString("$" + strconv.Itoa(v.Len()) + "\r\n")
	c.addReply(v)
	c.addReply(c.srv.shared.CRLF)
}

// addReplyError queues "-ERR <message>".
func (c *Conn) addReplyError(err error) {
	c.addReplyString("-" + formatRedisError(err) + "\r\n")
}

// formatRedisError converts an error to a Redis error string.
// For DomainErrors, returns "ERR <message>".
// For other errors, returns "ERR <error>".
func formatRedisError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return "ERR " + de.Message
	}
	return "ERR " + err.Error()
}

// onWritable hands the writer at most MaxWritePerEvent bytes, starting
// at the unsent part of the queue head.
func (c *Conn) onWritable() {
	if c.closed {
		return
	}
	c.dropSent()
	if c.replies.Len() == 0 {
		c.writing = false
		return
	}

	limit := c.srv.cfg.MaxWritePerEvent
	bufs := make(net.Buffers, 0, 8)
	total := 0
	skip := c.sentLen
	for i, n := 0, c.replies.Len(); i < n && total < limit; i++ {
		b := c.replies.Peek(i).Bytes()[skip:]
		skip = 0
		if len(b) == 0 {
			continue
		}
		if total+len(b) > limit {
			b = b[:limit-total]
		}
		bufs = append(bufs, b)
		total += len(b)
	}

	c.srv.metrics.ReplyFlushes.Inc()
	c.writeCh <- bufs
}

// onWritten is the writer's completion. It is the next writable event:
// fully written values are released and the next batch is started.
func (c *Conn) onWritten(n int, err error) {
	if c.closed {
		return
	}
	c.srv.metrics.ReplyBytes.Add(float64(n))

	for n > 0 && c.replies.Len() > 0 {
		head := c.replies.Peek(0)
		remain := head.Len() - c.sentLen
		if n < remain {
			c.sentLen += n
			n = 0
			break
		}
		n -= remain
		c.replies.PopFront()
		head.DecrRef()
		c.sentLen = 0
	}

	if err != nil {
		c.srv.logger.Info("writing to client", "conn", c.id, "error", err)
		c.close("write error")
		return
	}
	c.onWritable()
}

// dropSent releases leading values with nothing left to send.
func (c *Conn) dropSent() {
	for c.replies.Len() > 0 {
		head := c.replies.Peek(0)
		if head.Len() > c.sentLen {
			return
		}
		c.replies.PopFront()
		head.DecrRef()
		c.sentLen = 0
	}
}
