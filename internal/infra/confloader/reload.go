package confloader

import (
	"log/slog"
	"strings"
)

// LevelReloader returns a watcher callback that re-reads key from the
// YAML file at path and passes the value to apply when it changes.
// Invalid or missing values are ignored.
func LevelReloader(key string, current string, valid func(string) bool, apply func(string), logger *slog.Logger) func(string) {
	last := strings.ToLower(current)
	return func(path string) {
		l := NewLoader()
		if err := l.LoadFile(path); err != nil {
			logger.Warn("config reload failed", "file", path, "error", err)
			return
		}
		v := strings.ToLower(l.GetString(key))
		if v == "" || v == last {
			return
		}
		if !valid(v) {
			logger.Warn("ignoring invalid reloaded setting", "key", key, "got", v)
			return
		}
		apply(v)
		logger.Info("configuration reloaded", "key", key, "from", last, "to", v)
		last = v
	}
}
