//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// setDetachedAttributes puts the child in its own process group so the
// termination signals below reach the whole tree and the child does not
// share the controlling invocation's signals.
func setDetachedAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// signalGraceful sends SIGTERM to the process group (negative pid).
func signalGraceful(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// signalForceful sends SIGKILL to the process group.
func signalForceful(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
