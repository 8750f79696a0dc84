package config

import "time"

// CLIConfig is the configuration for timerelay-cli.
type CLIConfig struct {
	// Server is the default server address (host:port).
	Server string `koanf:"server" yaml:"server"`
	// Output is the default output format (text, json, yaml).
	Output string `koanf:"output" yaml:"output"`
	// Timeout bounds connecting and each request.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "127.0.0.1:6379",
		Output:  "text",
		Timeout: 5 * time.Second,
	}
}
