//go:build windows

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

const createNewProcessGroup = 0x00000200

// setDetachedAttributes detaches the child from this console so it
// survives the controlling invocation.
func setDetachedAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: createNewProcessGroup,
	}
}

// signalGraceful has no SIGTERM equivalent on Windows; termination is
// unconditional in both cases.
func signalGraceful(pid int) error {
	return terminateByPID(pid)
}

func signalForceful(pid int) error {
	return terminateByPID(pid)
}

func terminateByPID(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Kill()
}
