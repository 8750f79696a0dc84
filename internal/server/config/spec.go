// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for timerelay-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Protocol  ProtocolSection  `koanf:"protocol"`
	Scheduler SchedulerSection `koanf:"scheduler"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	HTTP  HTTPConfig  `koanf:"http"`
}

// RedisConfig configures the Redis protocol listener.
type RedisConfig struct {
	// Bind is the interface address. Empty means all interfaces.
	Bind string `koanf:"bind"`
	Port int    `koanf:"port"`
}

// Addr returns the listen address in host:port form.
func (c RedisConfig) Addr() string {
	return joinHostPort(c.Bind, c.Port)
}

// HTTPConfig configures the admin HTTP endpoint.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`

	// AllowList restricts clients to these IPs or CIDR blocks. Empty allows all.
	AllowList []string `koanf:"allow_list"`

	// RateLimit is the per-client request rate in requests/second. Zero disables it.
	RateLimit int `koanf:"rate_limit"`
}

// ProtocolSection bounds the request parser and reply writer.
type ProtocolSection struct {
	// MaxQueryBuffer closes a connection whose unparsed input exceeds it.
	MaxQueryBuffer int `koanf:"max_query_buffer"`

	// MaxWritePerEvent caps the bytes handed to the socket per writable event.
	MaxWritePerEvent int `koanf:"max_write_per_event"`

	// ReadBufferSize is the size of each socket read.
	ReadBufferSize int `koanf:"read_buffer_size"`

	// MaxArgs is the largest accepted multibulk count.
	MaxArgs int `koanf:"max_args"`

	// MaxBulkLen is the largest accepted bulk argument.
	MaxBulkLen int `koanf:"max_bulk_len"`
}

// SchedulerSection configures outbound dispatch of scheduled tasks.
type SchedulerSection struct {
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// DispatchRate limits dispatches per second. Zero disables the limit.
	DispatchRate  float64 `koanf:"dispatch_rate"`
	DispatchBurst int     `koanf:"dispatch_burst"`

	// MinRepeatPeriod is the floor applied to repeat task periods.
	MinRepeatPeriod time.Duration `koanf:"min_repeat_period"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}
