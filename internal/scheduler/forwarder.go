package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/timerelay-go/internal/telemetry/metric"
)

// ForwarderConfig holds outbound connection settings.
type ForwarderConfig struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration

	// Rate limits dispatches per second across all tasks. Zero means no limit.
	Rate  float64
	Burst int
}

// Forwarder delivers payloads to workers. Each dispatch runs on its own
// goroutine: connect, write every buffer, close. There is no retry.
type Forwarder struct {
	cfg     ForwarderConfig
	limiter *rate.Limiter
	dialer  net.Dialer
	logger  *slog.Logger
	metrics *metric.Registry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewForwarder creates a forwarder.
func NewForwarder(cfg ForwarderConfig, logger *slog.Logger, metrics *metric.Registry) *Forwarder {
	limit := rate.Inf
	burst := cfg.Burst
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
		if burst < 1 {
			burst = 1
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Forwarder{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		dialer:  net.Dialer{Timeout: cfg.DialTimeout},
		logger:  logger,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Dispatch implements Dispatcher.
func (f *Forwarder) Dispatch(taskID int64, target string, bufs net.Buffers) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		start := time.Now()
		err := f.Forward(f.ctx, target, bufs)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			f.metrics.RecordDispatch("error", elapsed)
			f.logger.Warn("dispatch failed",
				"task", taskID,
				"target", target,
				"error", err,
			)
			return
		}
		f.metrics.RecordDispatch("ok", elapsed)
		f.logger.Debug("dispatched", "task", taskID, "target", target)
	}()
}

// Forward connects to target and writes bufs.
func (f *Forwarder) Forward(ctx context.Context, target string, bufs net.Buffers) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	conn, err := f.dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}
	defer conn.Close()

	if f.cfg.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout)); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}
	}
	// WriteTo keeps writing until every buffer is sent or an error occurs.
	if _, err := bufs.WriteTo(conn); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// Wait blocks until in-flight dispatches finish or ctx ends. When ctx
// ends first the remaining dispatches are cancelled.
func (f *Forwarder) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		f.cancel()
		<-done
		return ctx.Err()
	}
}

// Close cancels in-flight dispatches without waiting.
func (f *Forwarder) Close() {
	f.cancel()
}
