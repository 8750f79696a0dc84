package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timerelay-go/internal/infra/buildinfo"
	"github.com/yndnr/timerelay-go/internal/infra/confloader"
	"github.com/yndnr/timerelay-go/internal/infra/daemon"
	"github.com/yndnr/timerelay-go/internal/infra/shutdown"
	"github.com/yndnr/timerelay-go/internal/scheduler"
	"github.com/yndnr/timerelay-go/internal/server/config"
	"github.com/yndnr/timerelay-go/internal/server/httpserver"
	"github.com/yndnr/timerelay-go/internal/server/redisserver"
	"github.com/yndnr/timerelay-go/internal/telemetry/logger"
	"github.com/yndnr/timerelay-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "timerelay-server %s\n", buildinfo.String())
	}
	return &cli.App{
		Name:    "timerelay-server",
		Usage:   "delayed and periodic payload relay speaking the Redis protocol",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"TIMERELAY_CONFIG"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Redis protocol listen port",
			},
			&cli.StringFlag{
				Name:    "bind",
				Aliases: []string{"b"},
				Usage:   "Redis protocol bind address",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "append logs to this file instead of stderr",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:  "daemonize",
				Usage: "detach from the terminal and run in the background",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"), flagOverrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if c.Bool("daemonize") && !daemon.IsChild() {
		pid, err := daemon.Detach()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "timerelay-server started in background, pid %d\n", pid)
		return nil
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()
	logger.SetDefault(log)

	log.Info("starting timerelay-server",
		"version", buildinfo.Version,
		"config", c.String("config"),
		"pid", os.Getpid())

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	metrics := metric.Global()
	srv := redisserver.New(serverConfig(cfg), log.Logger, metrics)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	shutdownHandler := shutdown.NewHandler(shutdownTimeout)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down request server")
		return srv.Shutdown(ctx)
	})

	if cfg.Server.HTTP.Enabled {
		admin := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Logger:    log.Logger,
			Metrics:   metrics.Handler(),
			Stats:     srv.Stats,
			AllowList: cfg.Server.HTTP.AllowList,
			RateLimit: cfg.Server.HTTP.RateLimit,
		}), log.Logger)
		if err := admin.Start(); err != nil {
			srv.Shutdown(context.Background())
			return err
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down admin http server")
			return admin.Shutdown(ctx)
		})
	}

	if path := c.String("config"); path != "" {
		if err := watchConfig(path, cfg, log.Logger, shutdownHandler); err != nil {
			log.Warn("config watcher disabled", "error", err)
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// flagOverrides maps explicitly set command line flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	flags := make(map[string]any)
	if c.IsSet("port") {
		flags["server.redis.port"] = c.Int("port")
	}
	if c.IsSet("bind") {
		flags["server.redis.bind"] = c.String("bind")
	}
	if c.IsSet("log-file") {
		flags["log.file"] = c.String("log-file")
	}
	if c.IsSet("log-level") {
		flags["log.level"] = c.String("log-level")
	}
	return flags
}

// loadConfig loads defaults, then the file, then TIMERELAY_ environment
// variables, then flags, and validates the result.
func loadConfig(configFile string, flags map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithFlags(flags)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// serverConfig converts the file configuration to request server settings.
func serverConfig(cfg *config.ServerConfig) redisserver.Config {
	return redisserver.Config{
		Address:          cfg.Server.Redis.Addr(),
		MaxQueryBuffer:   cfg.Protocol.MaxQueryBuffer,
		MaxWritePerEvent: cfg.Protocol.MaxWritePerEvent,
		ReadBufferSize:   cfg.Protocol.ReadBufferSize,
		MaxArgs:          cfg.Protocol.MaxArgs,
		MaxBulkLen:       cfg.Protocol.MaxBulkLen,
		Scheduler: scheduler.Config{
			MinRepeatPeriod: cfg.Scheduler.MinRepeatPeriod,
		},
		Forwarder: scheduler.ForwarderConfig{
			DialTimeout:  cfg.Scheduler.DialTimeout,
			WriteTimeout: cfg.Scheduler.WriteTimeout,
			Rate:         cfg.Scheduler.DispatchRate,
			Burst:        cfg.Scheduler.DispatchBurst,
		},
	}
}

// watchConfig reloads log.level whenever the configuration file changes.
func watchConfig(path string, cfg *config.ServerConfig, log *slog.Logger, h *shutdown.Handler) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return err
	}
	w.OnChange(confloader.LevelReloader("log.level", cfg.Log.Level, logger.ValidLevel, logger.SetLevel, log))
	w.StartAsync()

	h.OnShutdown(func(context.Context) error {
		return w.Stop()
	})
	return nil
}
