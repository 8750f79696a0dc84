package redisserver

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/yndnr/timerelay-go/internal/object"
)

var (
	// ErrProtocol marks a request that does not follow the multibulk format.
	ErrProtocol = errors.New("protocol error")
	// ErrLimitExceeded marks a request larger than the configured limits.
	ErrLimitExceeded = errors.New("limit exceeded")
)

// protocolError is a malformed request. The connection is closed without
// a reply. reason is a short label used in metrics.
type protocolError struct {
	reason string
	msg    string
}

func (e *protocolError) Error() string {
	return e.Unwrap().Error() + ": " + e.msg
}

func (e *protocolError) Unwrap() error {
	switch e.reason {
	case "query_buffer", "too_many_args", "bulk_too_large":
		return ErrLimitExceeded
	}
	return ErrProtocol
}

func newProtocolError(reason, format string, args ...any) *protocolError {
	return &protocolError{reason: reason, msg: fmt.Sprintf(format, args...)}
}

var errQueryBufferOverflow = newProtocolError("query_buffer", "unparsed input exceeds query buffer limit")

// processInputBuffer parses as many complete requests as the query buffer
// holds and executes each one. It keeps the partial state of an incomplete
// request, so input may arrive split at any byte boundary.
func (c *Conn) processInputBuffer() error {
	for !c.closed && len(c.query) > 0 {
		if c.multibulk == 0 {
			line, ok, err := c.readLine()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if len(line) == 0 || line[0] != '*' {
				return newProtocolError("bad_header", "expected '*', got %q", truncate(line))
			}
			n, err := strconv.Atoi(string(line[1:]))
			if err != nil {
				return newProtocolError("bad_header", "invalid multibulk length %q", truncate(line[1:]))
			}
			if n <= 0 {
				// Empty or null request: nothing to execute.
				continue
			}
			if n > c.srv.cfg.MaxArgs {
				return newProtocolError("too_many_args", "multibulk length %d exceeds limit %d", n, c.srv.cfg.MaxArgs)
			}
			c.multibulk = n
			if cap(c.argv) < n && n <= 1024 {
				c.argv = make([]*object.Value, 0, n)
			}
		}

		for c.multibulk > 0 {
			if c.bulkLen < 0 {
				line, ok, err := c.readLine()
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if len(line) == 0 || line[0] != '$' {
					return newProtocolError("bad_bulk", "expected '$', got %q", truncate(line))
				}
				n, err := strconv.Atoi(string(line[1:]))
				if err != nil || n < 0 {
					return newProtocolError("bad_bulk", "invalid bulk length %q", truncate(line[1:]))
				}
				if n > c.srv.cfg.MaxBulkLen {
					return newProtocolError("bulk_too_large", "bulk length %d exceeds limit %d", n, c.srv.cfg.MaxBulkLen)
				}
				c.bulkLen = n
			}

			if len(c.query) < c.bulkLen+2 {
				return nil
			}
			if c.query[c.bulkLen] != '\r' || c.query[c.bulkLen+1] != '\n' {
				return newProtocolError("bad_bulk", "bulk argument not terminated by CRLF")
			}

			arg := make([]byte, c.bulkLen)
			copy(arg, c.query[:c.bulkLen])
			c.argv = append(c.argv, object.NewString(arg))
			c.consume(c.bulkLen + 2)
			c.bulkLen = -1
			c.multibulk--
		}

		c.processCommand()
	}
	return nil
}

// readLine takes one CRLF terminated line from the query buffer. ok is
// false when no complete line is buffered yet.
func (c *Conn) readLine() (line []byte, ok bool, err error) {
	i := bytes.IndexByte(c.query, '\n')
	if i < 0 {
		return nil, false, nil
	}
	if i == 0 || c.query[i-1] != '\r' {
		return nil, false, newProtocolError("bad_line", "line not terminated by CRLF")
	}
	line = c.query[:i-1]
	c.consume(i + 1)
	return line, true, nil
}

// consume drops n parsed bytes from the front of the query buffer.
func (c *Conn) consume(n int) {
	c.query = c.query[n:]
	if len(c.query) == 0 {
		c.query = nil
	}
}

func truncate(b []byte) string {
	const max = 32
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
