// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("server config is nil")
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyProtocol(&cfg.Protocol); err != nil {
		return err
	}
	if err := verifyScheduler(&cfg.Scheduler); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Redis.Port < 0 || cfg.Redis.Port > 65535 {
		return fmt.Errorf("server.redis.port %d out of range", cfg.Redis.Port)
	}
	if cfg.HTTP.Enabled {
		if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
			return fmt.Errorf("server.http.addr: %w", err)
		}
		if cfg.HTTP.Addr == cfg.Redis.Addr() {
			return errors.New("server.http.addr conflicts with the redis listener")
		}
		if cfg.HTTP.RateLimit < 0 {
			return errors.New("server.http.rate_limit must not be negative")
		}
		for _, entry := range cfg.HTTP.AllowList {
			if !validACLEntry(entry) {
				return fmt.Errorf("server.http.allow_list: invalid entry %q", entry)
			}
		}
	}
	return nil
}

func verifyProtocol(cfg *ProtocolSection) error {
	if cfg.MaxQueryBuffer <= 0 {
		return errors.New("protocol.max_query_buffer must be positive")
	}
	if cfg.MaxWritePerEvent <= 0 {
		return errors.New("protocol.max_write_per_event must be positive")
	}
	if cfg.ReadBufferSize <= 0 {
		return errors.New("protocol.read_buffer_size must be positive")
	}
	if cfg.MaxArgs <= 0 {
		return errors.New("protocol.max_args must be positive")
	}
	if cfg.MaxBulkLen <= 0 {
		return errors.New("protocol.max_bulk_len must be positive")
	}
	if cfg.MaxBulkLen+2 > cfg.MaxQueryBuffer {
		return errors.New("protocol.max_bulk_len must leave room for CRLF within protocol.max_query_buffer")
	}
	return nil
}

func verifyScheduler(cfg *SchedulerSection) error {
	if cfg.DialTimeout <= 0 {
		return errors.New("scheduler.dial_timeout must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("scheduler.write_timeout must be positive")
	}
	if cfg.DispatchRate < 0 {
		return errors.New("scheduler.dispatch_rate must not be negative")
	}
	if cfg.DispatchRate > 0 && cfg.DispatchBurst < 1 {
		return errors.New("scheduler.dispatch_burst must be at least 1 when dispatch_rate is set")
	}
	if cfg.MinRepeatPeriod <= 0 {
		return errors.New("scheduler.min_repeat_period must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", cfg.Format)
	}
	if cfg.File != "" {
		dir := filepath.Dir(cfg.File)
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return fmt.Errorf("log.file directory %s does not exist", dir)
		}
	}
	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// validACLEntry reports whether entry is an IP address or a CIDR block.
func validACLEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}
