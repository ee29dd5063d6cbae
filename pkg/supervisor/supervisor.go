package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/pricewatch/opsctl/pkg/errors"
	"github.com/pricewatch/opsctl/pkg/handlestore"
	"github.com/pricewatch/opsctl/pkg/logging"
	"github.com/pricewatch/opsctl/pkg/processstate"
)

const (
	DefaultGracePeriod  = 10 * time.Second
	DefaultSettleDelay  = 1 * time.Second
	DefaultPollInterval = 1 * time.Second
)

// Options describes one supervised service.
type Options struct {
	// Name is the logical service name, it keys the handle file.
	Name string

	// Command and Args form the command line to spawn.
	Command string
	Args    []string

	// Environment entries in KEY=VALUE form, appended to the parent's.
	Environment []string

	// LogFile receives the child's combined stdout and stderr, appended.
	LogFile string

	// SettleDelay is how long to wait after spawn before re-probing
	// liveness, and between stop and start on restart.
	SettleDelay time.Duration

	// GracePeriod is how long Stop waits for graceful termination before
	// escalating to a forceful kill.
	GracePeriod time.Duration

	// PollInterval is the liveness polling interval during Stop.
	PollInterval time.Duration
}

// SpawnFunc spawns a detached child and returns its pid without waiting.
type SpawnFunc func(opts Options) (int, error)

// ProbeFunc reports whether pid refers to a live process.
type ProbeFunc func(pid int) (bool, error)

// SignalFunc delivers a termination signal to pid.
type SignalFunc func(pid int) error

// Supervisor owns the lifecycle of one named detached process. The handle
// store is its source of truth for process identity: "handle exists and the
// recorded pid is alive" is treated as an advisory mutual-exclusion check.
type Supervisor struct {
	opts    Options
	handles *handlestore.Store
	logger  logging.Logger

	// Seams for the platform-specific operations, replaceable in tests
	spawn     SpawnFunc
	probe     ProbeFunc
	terminate SignalFunc
	kill      SignalFunc
}

// New creates a supervisor for one service, applying defaults for the
// timing options left zero.
func New(opts Options, handles *handlestore.Store, logger logging.Logger) *Supervisor {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	return &Supervisor{
		opts:      opts,
		handles:   handles,
		logger:    logger,
		spawn:     spawnDetached,
		probe:     processstate.IsProcessRunning,
		terminate: signalGraceful,
		kill:      signalForceful,
	}
}

// Start spawns the service as a detached child unless it is already
// running. A handle pointing at a dead process is stale state: it is
// discarded and the start proceeds. Returns the pid of the running process.
func (s *Supervisor) Start(ctx context.Context) (int, error) {
	if s.opts.Command == "" {
		return 0, errors.NewValidationError("service has no command configured", nil).WithContext("service", s.opts.Name)
	}

	recorded, err := s.handles.Read(s.opts.Name)
	switch {
	case err == nil:
		alive, probeErr := s.probe(recorded)
		if probeErr != nil {
			s.logger.Debugf("Liveness probe failed, treating pid as dead, service: %s, pid: %d, error: %v",
				s.opts.Name, recorded, probeErr)
			alive = false
		}
		if alive {
			return recorded, errors.NewConflictError(
				fmt.Sprintf("%s is already running", s.opts.Name), nil).WithContext("pid", recorded)
		}
		// Stale handle: self-healing, not surfaced as a failure
		s.logger.Warnf("Discarding stale handle, service: %s, pid: %d", s.opts.Name, recorded)
		if err := s.handles.Remove(s.opts.Name); err != nil {
			return 0, err
		}
	case errors.IsNotFoundError(err):
		// Nothing recorded, normal cold start
	case errors.IsValidationError(err):
		// Unreadable handle content is stale state too
		s.logger.Warnf("Discarding unreadable handle, service: %s, error: %v", s.opts.Name, err)
		if err := s.handles.Remove(s.opts.Name); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	s.logger.Infof("Starting %s: %s", s.opts.Name, s.opts.Command)

	pid, err := s.spawn(s.opts)
	if err != nil {
		return 0, errors.NewLaunchError(
			fmt.Sprintf("failed to spawn %s", s.opts.Name), err).WithContext("command", s.opts.Command)
	}

	if err := s.handles.Write(s.opts.Name, pid); err != nil {
		return 0, err
	}

	// Let the child settle, then confirm it did not die on startup
	s.sleep(ctx, s.opts.SettleDelay)

	alive, probeErr := s.probe(pid)
	if probeErr != nil || !alive {
		if err := s.handles.Remove(s.opts.Name); err != nil {
			s.logger.Warnf("Failed to clean up handle after launch failure, service: %s, error: %v", s.opts.Name, err)
		}
		return 0, errors.NewLaunchError(
			fmt.Sprintf("%s exited during startup, check %s", s.opts.Name, s.opts.LogFile), probeErr).WithContext("pid", pid)
	}

	s.logger.Infof("Started %s, pid: %d", s.opts.Name, pid)
	return pid, nil
}

// Stop terminates the service gracefully, escalating to a forceful kill
// when the grace period is exceeded. A missing handle means the service is
// already stopped and is not an error. The handle file is always removed on
// the way out.
func (s *Supervisor) Stop(ctx context.Context) (err error) {
	pid, readErr := s.handles.Read(s.opts.Name)
	if readErr != nil {
		if errors.IsNotFoundError(readErr) {
			s.logger.Infof("%s is not running", s.opts.Name)
			return nil
		}
		// Unreadable handle: nothing to signal, clean up and report stopped
		s.logger.Warnf("Removing unreadable handle, service: %s, error: %v", s.opts.Name, readErr)
		return s.handles.Remove(s.opts.Name)
	}

	defer func() {
		if removeErr := s.handles.Remove(s.opts.Name); removeErr != nil && err == nil {
			err = removeErr
		}
	}()

	alive, probeErr := s.probe(pid)
	if probeErr != nil {
		alive = false
	}
	if !alive {
		s.logger.Infof("%s already stopped, cleaning up stale handle, pid: %d", s.opts.Name, pid)
		return nil
	}

	s.logger.Infof("Stopping %s, pid: %d", s.opts.Name, pid)

	if signalErr := s.terminate(pid); signalErr != nil {
		// The process may have exited between probe and signal
		s.logger.Debugf("Graceful signal failed, service: %s, pid: %d, error: %v", s.opts.Name, pid, signalErr)
	}

	deadline := time.Now().Add(s.opts.GracePeriod)
	for time.Now().Before(deadline) {
		s.sleep(ctx, s.opts.PollInterval)
		if alive, _ := s.probe(pid); !alive {
			s.logger.Infof("Stopped %s", s.opts.Name)
			return nil
		}
	}

	// Grace period exceeded, escalate. Not fatal by itself.
	s.logger.Warnf("%s did not stop within %s, killing, pid: %d", s.opts.Name, s.opts.GracePeriod, pid)
	if killErr := s.kill(pid); killErr != nil {
		s.logger.Debugf("Forceful signal failed, service: %s, pid: %d, error: %v", s.opts.Name, pid, killErr)
	}

	s.sleep(ctx, s.opts.PollInterval)
	if alive, _ := s.probe(pid); alive {
		return errors.NewProcessError(
			fmt.Sprintf("%s survived forceful termination", s.opts.Name), nil).WithContext("pid", pid)
	}

	s.logger.Infof("Stopped %s (killed)", s.opts.Name)
	return nil
}

// Restart stops the service and starts it again after a settle delay.
// A stop that fails to confirm termination is logged and deliberately does
// not block the start attempt.
func (s *Supervisor) Restart(ctx context.Context) (int, error) {
	if err := s.Stop(ctx); err != nil {
		s.logger.Warnf("Stop did not confirm termination, proceeding with start, service: %s, error: %v", s.opts.Name, err)
	}

	s.sleep(ctx, s.opts.SettleDelay)

	return s.Start(ctx)
}

// Status reports the recorded pid and whether it is alive. A missing
// handle means not running.
func (s *Supervisor) Status() (pid int, running bool, err error) {
	pid, err = s.handles.Read(s.opts.Name)
	if err != nil {
		if errors.IsNotFoundError(err) || errors.IsValidationError(err) {
			return 0, false, nil
		}
		return 0, false, err
	}

	running, probeErr := s.probe(pid)
	if probeErr != nil {
		running = false
	}
	return pid, running, nil
}

func (s *Supervisor) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
