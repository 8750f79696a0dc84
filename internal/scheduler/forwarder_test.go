package scheduler

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/timerelay-go/internal/telemetry/metric"
)

// sink accepts connections and reports what each one sent.
func sink(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 16)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				b, _ := io.ReadAll(c)
				out <- string(b)
			}()
		}
	}()
	return ln.Addr().String(), out
}

func newTestForwarder(cfg ForwarderConfig) (*Forwarder, *metric.Registry) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = time.Second
	}
	m := metric.NewRegistry()
	return NewForwarder(cfg, discard(), m), m
}

func TestForwarder_Forward(t *testing.T) {
	addr, out := sink(t)
	f, _ := newTestForwarder(ForwarderConfig{})

	bufs := net.Buffers{[]byte("$5\r\n"), []byte("hello"), []byte("\r\n")}
	require.NoError(t, f.Forward(context.Background(), addr, bufs))

	select {
	case got := <-out:
		require.Equal(t, "$5\r\nhello\r\n", got)
	case <-time.After(2 * time.Second):
		t.Fatal("worker received nothing")
	}
}

func TestForwarder_DispatchRecordsMetrics(t *testing.T) {
	addr, out := sink(t)
	f, m := newTestForwarder(ForwarderConfig{})

	f.Dispatch(7, addr, net.Buffers{[]byte("$1\r\n"), []byte("x"), []byte("\r\n")})
	require.NoError(t, f.Wait(context.Background()))

	select {
	case got := <-out:
		require.Equal(t, "$1\r\nx\r\n", got)
	case <-time.After(2 * time.Second):
		t.Fatal("worker received nothing")
	}
	require.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("ok")))
}

func TestForwarder_DialFailure(t *testing.T) {
	// Grab a free port and close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	f, m := newTestForwarder(ForwarderConfig{})
	require.Error(t, f.Forward(context.Background(), addr, net.Buffers{[]byte("x")}))

	f.Dispatch(1, addr, net.Buffers{[]byte("x")})
	require.NoError(t, f.Wait(context.Background()))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("error")))
}

func TestForwarder_RateLimit(t *testing.T) {
	addr, out := sink(t)
	f, _ := newTestForwarder(ForwarderConfig{Rate: 20, Burst: 1})

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.Forward(context.Background(), addr, net.Buffers{[]byte("x")}))
	}
	// Two waits of 50ms each after the first token.
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	for i := 0; i < 3; i++ {
		<-out
	}
}

func TestForwarder_WaitCancelled(t *testing.T) {
	f, _ := newTestForwarder(ForwarderConfig{Rate: 0.001, Burst: 1})
	addr, _ := sink(t)

	// The first dispatch consumes the only token; the second blocks on the limiter.
	require.NoError(t, f.Forward(context.Background(), addr, net.Buffers{[]byte("x")}))
	f.Dispatch(2, addr, net.Buffers{[]byte("y")})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, f.Wait(ctx), context.DeadlineExceeded)
}
