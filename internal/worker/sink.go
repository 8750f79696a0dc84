// Package worker implements the receiving end of forwarded tasks: a TCP
// sink that decodes bulk frames ("$<len>\r\n<payload>\r\n") and hands each
// payload to a handler.
package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBadFrame is returned for input that is not a bulk frame.
var ErrBadFrame = errors.New("bad frame")

// Frame is one forwarded payload.
type Frame struct {
	Remote   string
	Payload  []byte
	Received time.Time
}

// Handler consumes frames. It is called from the connection goroutine.
type Handler func(Frame)

// Config holds sink configuration.
type Config struct {
	// Address is the TCP listen address.
	Address string
	// MaxFrame is the largest accepted payload.
	MaxFrame int
	// ReadTimeout bounds how long a connection may stay idle.
	ReadTimeout time.Duration
}

// DefaultConfig returns the default sink configuration.
func DefaultConfig() Config {
	return Config{
		Address:     "127.0.0.1:8001",
		MaxFrame:    128 * 1024 * 1024,
		ReadTimeout: 30 * time.Second,
	}
}

// Sink accepts forwarded payloads.
type Sink struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger

	ln      net.Listener
	running atomic.Bool
	frames  atomic.Int64

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// New creates a sink. A nil handler logs each frame.
func New(cfg Config, handler Handler, logger *slog.Logger) *Sink {
	def := DefaultConfig()
	if cfg.MaxFrame <= 0 {
		cfg.MaxFrame = def.MaxFrame
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{
		cfg:    cfg,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
	if handler == nil {
		handler = s.logFrame
	}
	s.handler = handler
	return s
}

// Start binds the listener and starts accepting.
func (s *Sink) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	s.ln = ln
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()

	s.logger.Info("worker listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Sink) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Frames returns the number of frames received so far.
func (s *Sink) Frames() int64 {
	return s.frames.Load()
}

// Shutdown stops accepting, closes open connections and waits for the
// connection goroutines.
func (s *Sink) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	err := s.ln.Close()

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

func (s *Sink) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.running.Load() && !errors.Is(err, net.ErrClosed) {
				s.logger.Error("accept failed", "error", err)
			}
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, conn)
				s.mu.Unlock()
				_ = conn.Close()
			}()
			s.serve(ctx, conn)
		}()
	}
}

// serve reads frames until the peer closes the connection.
func (s *Sink) serve(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	r := bufio.NewReader(conn)

	for ctx.Err() == nil {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		payload, err := ReadFrame(r, s.cfg.MaxFrame)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("reading frame", "remote", remote, "error", err)
			}
			return
		}
		s.frames.Add(1)
		s.handler(Frame{Remote: remote, Payload: payload, Received: time.Now()})
	}
}

func (s *Sink) logFrame(f Frame) {
	s.logger.Info("received task", "remote", f.Remote, "size", len(f.Payload), "payload", string(f.Payload))
}

// ReadFrame decodes one bulk frame. io.EOF is returned only when r ends
// cleanly before a frame starts.
func ReadFrame(r *bufio.Reader, maxLen int) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if len(line) < 4 || line[0] != '$' || line[len(line)-2] != '\r' {
		return nil, fmt.Errorf("%w: header %q", ErrBadFrame, line)
	}
	n, err := strconv.Atoi(line[1 : len(line)-2])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: length %q", ErrBadFrame, line[1:len(line)-2])
	}
	if n > maxLen {
		return nil, fmt.Errorf("%w: length %d exceeds %d", ErrBadFrame, n, maxLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: payload not terminated by CRLF", ErrBadFrame)
	}
	return buf[:n], nil
}
