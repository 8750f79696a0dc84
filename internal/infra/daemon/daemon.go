//go:build unix

// Package daemon detaches the server from its controlling terminal.
//
// Go cannot fork a running multi-threaded process, so Detach re-executes
// the current binary in a new session with stdio redirected to /dev/null.
// The child keeps the working directory so relative configuration and log
// paths resolve as they did in the parent. It recognises itself through an
// environment marker and carries on as the daemon; the parent exits.
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// EnvMarker is set in the environment of the detached child.
const EnvMarker = "TIMERELAY_DAEMONIZED"

// IsChild reports whether this process is the detached child.
func IsChild() bool {
	return os.Getenv(EnvMarker) == "1"
}

// Detach starts a detached copy of the current process with the same
// arguments and returns its pid. The caller is expected to exit.
func Detach() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable: %w", err)
	}
	return start(exe, os.Args[1:], os.Environ())
}

func start(exe string, args, env []string) (int, error) {
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devnull.Close()

	cmd := exec.Command(exe, args...)
	cmd.Env = append(env, EnvMarker+"=1")
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start daemon: %w", err)
	}
	pid := cmd.Process.Pid
	// The child is not waited for; release its resources in the parent.
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release daemon: %w", err)
	}
	return pid, nil
}
