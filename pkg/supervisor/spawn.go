package supervisor

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pricewatch/opsctl/pkg/errors"
)

// spawnDetached starts the service command as a detached child with
// stdout and stderr appended to the log file, and returns its pid without
// waiting for completion.
func spawnDetached(opts Options) (int, error) {
	logFile, err := openLogFile(opts.LogFile)
	if err != nil {
		return 0, err
	}
	defer logFile.Close()

	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Env = append(os.Environ(), opts.Environment...)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	// Platform-specific detachment (process group on Unix)
	setDetachedAttributes(cmd)

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid := cmd.Process.Pid

	// The child outlives this invocation; release our reference so no
	// wait is ever performed on it.
	if err := cmd.Process.Release(); err != nil {
		return pid, err
	}

	return pid, nil
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, errors.NewValidationError("service has no log file configured", nil)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewIOError("failed to create log directory", err).WithContext("directory", dir)
		}
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.NewIOError("failed to open log file", err).WithContext("path", path)
	}
	return logFile, nil
}
