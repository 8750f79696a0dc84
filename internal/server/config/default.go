// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultRedisBind = "127.0.0.1"
	DefaultRedisPort = 6379
	DefaultHTTPAddr  = "127.0.0.1:9121"

	DefaultHTTPRateLimit = 100

	DefaultMaxQueryBuffer   = 256 * 1024 * 1024
	DefaultMaxWritePerEvent = 64 * 1024
	DefaultReadBufferSize   = 16 * 1024
	DefaultMaxArgs          = 1024 * 1024
	DefaultMaxBulkLen       = 128 * 1024 * 1024

	DefaultDialTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultDispatchBurst   = 1
	DefaultMinRepeatPeriod = time.Millisecond

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Bind: DefaultRedisBind,
				Port: DefaultRedisPort,
			},
			HTTP: HTTPConfig{
				Enabled:   false,
				Addr:      DefaultHTTPAddr,
				RateLimit: DefaultHTTPRateLimit,
			},
		},
		Protocol: ProtocolSection{
			MaxQueryBuffer:   DefaultMaxQueryBuffer,
			MaxWritePerEvent: DefaultMaxWritePerEvent,
			ReadBufferSize:   DefaultReadBufferSize,
			MaxArgs:          DefaultMaxArgs,
			MaxBulkLen:       DefaultMaxBulkLen,
		},
		Scheduler: SchedulerSection{
			DialTimeout:     DefaultDialTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			DispatchBurst:   DefaultDispatchBurst,
			MinRepeatPeriod: DefaultMinRepeatPeriod,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
