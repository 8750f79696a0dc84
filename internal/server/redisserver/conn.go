package redisserver

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/edwingeng/deque/v2"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/timerelay-go/internal/object"
)

// Conn is one client connection. Apart from id and netConn, every field
// is owned by the loop.
type Conn struct {
	id      string
	srv     *Server
	netConn net.Conn

	// Request parsing state.
	query     []byte
	argv      []*object.Value
	multibulk int // arguments still expected for the pending request
	bulkLen   int // length of the next bulk argument, -1 when unknown

	// Reply queue state.
	replies *deque.Deque[*object.Value]
	sentLen int  // bytes of the queue head already written
	writing bool // a writable event is pending or a batch is in flight

	writeCh chan net.Buffers
	quit    chan struct{}
	closed  bool

	created  time.Time
	lastSeen time.Time
}

func newConn(s *Server, nc net.Conn) *Conn {
	now := time.Now()
	return &Conn{
		id:       ulid.Make().String(),
		srv:      s,
		netConn:  nc,
		bulkLen:  -1,
		replies:  deque.NewDeque[*object.Value](),
		writeCh:  make(chan net.Buffers, 1),
		quit:     make(chan struct{}),
		created:  now,
		lastSeen: now,
	}
}

// ID returns the connection id.
func (c *Conn) ID() string {
	return c.id
}

// startIO launches the reader and writer goroutines.
func (c *Conn) startIO() {
	c.srv.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()
}

// readLoop hands every chunk read from the socket to the loop.
func (c *Conn) readLoop() {
	defer c.srv.wg.Done()

	buf := make([]byte, c.srv.cfg.ReadBufferSize)
	for {
		n, err := c.netConn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !c.srv.loop.Post(func() { c.onReadable(data) }) {
				return
			}
		}
		if err != nil {
			c.srv.loop.Post(func() { c.onReadError(err) })
			return
		}
	}
}

// writeLoop performs the writes requested by onWritable and reports each
// completion back to the loop.
func (c *Conn) writeLoop() {
	defer c.srv.wg.Done()

	for {
		select {
		case bufs := <-c.writeCh:
			n, err := bufs.WriteTo(c.netConn)
			if !c.srv.loop.Post(func() { c.onWritten(int(n), err) }) {
				return
			}
		case <-c.quit:
			return
		case <-c.srv.stopped:
			return
		}
	}
}

// onReadable runs on the loop.
func (c *Conn) onReadable(data []byte) {
	if c.closed {
		return
	}
	c.lastSeen = time.Now()
	c.query = append(c.query, data...)

	if len(c.query) > c.srv.cfg.MaxQueryBuffer {
		c.protocolError(errQueryBufferOverflow)
		return
	}
	if err := c.processInputBuffer(); err != nil {
		c.protocolError(err)
	}
}

// onReadError runs on the loop.
func (c *Conn) onReadError(err error) {
	if c.closed {
		return
	}
	if errors.Is(err, io.EOF) {
		c.srv.logger.Debug("client closed connection", "conn", c.id)
		c.close("eof")
		return
	}
	c.srv.logger.Info("reading from client", "conn", c.id, "error", err)
	c.close("read error")
}

func (c *Conn) protocolError(err error) {
	var pe *protocolError
	reason := "unknown"
	if errors.As(err, &pe) {
		reason = pe.reason
	}
	c.srv.metrics.ProtocolErrors.WithLabelValues(reason).Inc()
	c.srv.logger.Warn("protocol error, closing connection",
		"conn", c.id,
		"remote", c.netConn.RemoteAddr().String(),
		"error", err,
	)
	c.close("protocol error")
}

// close releases every resource of the connection. It runs on the loop,
// or during shutdown after the loop has exited.
func (c *Conn) close(reason string) {
	if c.closed {
		return
	}
	c.closed = true

	_ = c.netConn.Close()
	close(c.quit)

	c.resetArgs()
	c.multibulk = 0
	c.bulkLen = -1
	c.query = nil
	for c.replies.Len() > 0 {
		c.replies.PopFront().DecrRef()
	}
	c.sentLen = 0
	c.writing = false

	delete(c.srv.conns, c.id)
	c.srv.untrack(c)
	c.srv.metrics.ConnectionsActive.Dec()
	c.srv.logger.Debug("connection closed",
		"conn", c.id,
		"reason", reason,
		"age", time.Since(c.created).Round(time.Millisecond),
	)
}

// resetArgs releases the argument vector.
func (c *Conn) resetArgs() {
	for i, v := range c.argv {
		v.DecrRef()
		c.argv[i] = nil
	}
	c.argv = c.argv[:0]
}
