// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that supports
// multiple sources using koanf as the underlying library.
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables (TIMERELAY_ prefix)
//  3. Configuration file (YAML)
//  4. Default values
//
// Watcher reports changes to the configuration file so that settings that
// are safe to change at runtime (the log level) can be reapplied.
package confloader
