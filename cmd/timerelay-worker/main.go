package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timerelay-go/internal/infra/buildinfo"
	"github.com/yndnr/timerelay-go/internal/infra/shutdown"
	"github.com/yndnr/timerelay-go/internal/telemetry/logger"
	"github.com/yndnr/timerelay-go/internal/worker"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	def := worker.DefaultConfig()
	return &cli.App{
		Name:    "timerelay-worker",
		Usage:   "receive payloads forwarded by timerelay-server",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "listen address host:port",
				Value:   def.Address,
				EnvVars: []string{"TIMERELAY_WORKER_LISTEN"},
			},
			&cli.IntFlag{
				Name:  "max-frame",
				Usage: "largest accepted payload in bytes",
				Value: def.MaxFrame,
			},
			&cli.DurationFlag{
				Name:  "read-timeout",
				Usage: "close connections idle for longer than this",
				Value: def.ReadTimeout,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "text or json",
				Value: "text",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	log, err := logger.New(logger.Config{
		Level:  c.String("log-level"),
		Format: c.String("log-format"),
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	sink := worker.New(worker.Config{
		Address:     c.String("listen"),
		MaxFrame:    c.Int("max-frame"),
		ReadTimeout: c.Duration("read-timeout"),
	}, printFrames(c.App.Writer), log.Logger)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if err := sink.Start(ctx); err != nil {
		return err
	}

	h := shutdown.NewHandler(10 * time.Second)
	h.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down worker", "frames", sink.Frames())
		return sink.Shutdown(ctx)
	})
	return h.Wait(ctx)
}

// printFrames writes each payload to w on its own line. Payloads are kept
// out of the log, which only records their size.
func printFrames(w io.Writer) worker.Handler {
	var mu sync.Mutex
	return func(f worker.Frame) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "received task from %s: %s\n", f.Remote, f.Payload)
	}
}
