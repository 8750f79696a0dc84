package redisserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/timerelay-go/internal/object"
	"github.com/yndnr/timerelay-go/internal/reactor"
	"github.com/yndnr/timerelay-go/internal/scheduler"
	"github.com/yndnr/timerelay-go/internal/telemetry/metric"
)

// Config holds the request server configuration.
type Config struct {
	// Address is the TCP listen address.
	Address string
	// MaxQueryBuffer is the largest amount of unparsed input kept per
	// connection. Exceeding it is a protocol error.
	MaxQueryBuffer int
	// MaxWritePerEvent caps the reply bytes handed to a socket per writable event.
	MaxWritePerEvent int
	// ReadBufferSize is the size of each socket read.
	ReadBufferSize int
	// MaxArgs is the largest accepted multibulk count.
	MaxArgs int
	// MaxBulkLen is the largest accepted bulk argument.
	MaxBulkLen int

	Scheduler scheduler.Config
	Forwarder scheduler.ForwarderConfig
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Address:          "127.0.0.1:6379",
		MaxQueryBuffer:   256 * 1024 * 1024,
		MaxWritePerEvent: 64 * 1024,
		ReadBufferSize:   16 * 1024,
		MaxArgs:          1024 * 1024,
		MaxBulkLen:       128 * 1024 * 1024,
		Scheduler: scheduler.Config{
			MinRepeatPeriod: time.Millisecond,
		},
		Forwarder: scheduler.ForwarderConfig{
			DialTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Burst:        1,
		},
	}
}

// Server is the request server. Everything except the listener and the
// per-connection I/O goroutines is owned by the loop.
type Server struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metric.Registry

	loop     *reactor.Loop
	db       *object.DB
	shared   *object.Shared
	sched    *scheduler.Scheduler
	fwd      *scheduler.Forwarder
	commands map[string]*Command
	conns    map[string]*Conn

	ln      net.Listener
	running atomic.Bool
	cancel  context.CancelFunc
	stopped chan struct{}
	wg      sync.WaitGroup

	// live tracks sockets from accept until close, including connections
	// whose registration never reached the loop.
	liveMu sync.Mutex
	live   map[*Conn]struct{}
}

// New creates a server. It does not listen until Start.
func New(cfg Config, logger *slog.Logger, metrics *metric.Registry) *Server {
	def := DefaultConfig()
	if cfg.MaxQueryBuffer <= 0 {
		cfg.MaxQueryBuffer = def.MaxQueryBuffer
	}
	if cfg.MaxWritePerEvent <= 0 {
		cfg.MaxWritePerEvent = def.MaxWritePerEvent
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = def.ReadBufferSize
	}
	if cfg.MaxArgs <= 0 {
		cfg.MaxArgs = def.MaxArgs
	}
	if cfg.MaxBulkLen <= 0 {
		cfg.MaxBulkLen = def.MaxBulkLen
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = metric.NewRegistry()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		loop:    reactor.New(),
		db:      object.NewDB(),
		shared:  object.NewShared(),
		conns:   make(map[string]*Conn),
		stopped: make(chan struct{}),
		live:    make(map[*Conn]struct{}),
	}
	s.fwd = scheduler.NewForwarder(cfg.Forwarder, logger, metrics)
	s.sched = scheduler.New(s.loop, s.fwd, s.shared, cfg.Scheduler, logger, metrics)
	s.commands = newCommandTable()

	if err := metrics.Register(metric.NewCollector(s.Stats)); err != nil {
		logger.Warn("state collector not registered", "error", err)
	}
	return s
}

// Start binds the listener and starts the loop and the accept goroutine.
// A bind failure is returned to the caller.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	s.ln = ln
	s.running.Store(true)

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go func() {
		_ = s.loop.Run(loopCtx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ln); err != nil {
			s.logger.Error("accept loop stopped", "error", err)
		}
	}()

	s.logger.Info("server is ready to accept connections", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, stops the loop, closes every connection,
// cancels pending tasks and waits for in-flight dispatches.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	var firstErr error
	if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		firstErr = err
	}

	s.cancel()
	<-s.loop.Done()

	// The loop has exited; this goroutine now has exclusive access to its state.
	for _, c := range s.conns {
		c.close("shutdown")
	}
	s.sched.Close()
	s.db.Flush()
	close(s.stopped)

	s.liveMu.Lock()
	for c := range s.live {
		_ = c.netConn.Close()
	}
	s.liveMu.Unlock()

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

	if err := s.fwd.Wait(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	s.logger.Info("server stopped")
	return firstErr
}

// Stats returns a snapshot of loop-owned state. It reports false when the
// loop is not running.
func (s *Server) Stats() (metric.Stats, bool) {
	ch := make(chan metric.Stats, 1)
	if !s.loop.Post(func() {
		st := metric.Stats{
			Keys:         s.db.Len(),
			PendingTasks: s.sched.Pending(),
			Connections:  len(s.conns),
		}
		for _, c := range s.conns {
			st.QueuedReplies += c.replies.Len()
		}
		ch <- st
	}) {
		return metric.Stats{}, false
	}
	select {
	case st := <-ch:
		return st, true
	case <-s.loop.Done():
		return metric.Stats{}, false
	case <-time.After(time.Second):
		return metric.Stats{}, false
	}
}

func (s *Server) acceptLoop(ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept timeout", "error", err)
				continue
			}
			return err
		}

		c := newConn(s, nc)
		s.track(c)
		if !s.loop.Post(func() { s.register(c) }) {
			s.untrack(c)
			_ = nc.Close()
			return nil
		}
		// Registration is queued ahead of anything the reader posts.
		c.startIO()
	}
}

// register runs on the loop.
func (s *Server) register(c *Conn) {
	s.conns[c.id] = c
	s.metrics.ConnectionsTotal.Inc()
	s.metrics.ConnectionsActive.Inc()
	s.logger.Debug("accepted connection",
		"conn", c.id,
		"remote", c.netConn.RemoteAddr().String(),
	)
}

func (s *Server) track(c *Conn) {
	s.liveMu.Lock()
	s.live[c] = struct{}{}
	s.liveMu.Unlock()
}

func (s *Server) untrack(c *Conn) {
	s.liveMu.Lock()
	delete(s.live, c)
	s.liveMu.Unlock()
}
