// Package config provides timerelay-cli configuration.
//
//   - spec.go: CLIConfig struct (~/.timerelay/cli.yaml)
//   - loader.go: loading (file, TIMERELAY_CLI_ environment) and saving
package config
