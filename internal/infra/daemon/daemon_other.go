//go:build !unix

package daemon

import (
	"errors"
	"os"
)

// EnvMarker is set in the environment of the detached child.
const EnvMarker = "TIMERELAY_DAEMONIZED"

// IsChild reports whether this process is the detached child.
func IsChild() bool {
	return os.Getenv(EnvMarker) == "1"
}

// Detach is not supported on this platform.
func Detach() (int, error) {
	return 0, errors.New("daemonize is not supported on this platform")
}
