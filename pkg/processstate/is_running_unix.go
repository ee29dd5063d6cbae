//go:build !windows

package processstate

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// IsProcessRunning probes liveness of pid without disturbing the process.
// Signal 0 performs the kernel-side existence and permission checks only:
// ESRCH means no such process, EPERM means the process exists but belongs
// to another user (still alive for our purposes).
func IsProcessRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, fmt.Errorf("invalid pid: %d", pid)
	}

	// On Unix FindProcess always succeeds; the probe below does the work.
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, err
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrProcessDone) {
		return false, nil
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false, err
	}
	switch errno {
	case syscall.ESRCH:
		return false, nil
	case syscall.EPERM:
		return true, nil
	}
	return false, err
}
