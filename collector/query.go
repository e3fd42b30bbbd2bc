package collector

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/wicsp/hostsnap/model"
)

// FindProcess returns processes whose name or command line contains name,
// ignoring case, from a fresh enumeration. An empty name matches everything.
func (c *Collector) FindProcess(ctx context.Context, name string) []model.Process {
	var matches []model.Process
	for _, p := range c.ListProcesses(ctx) {
		if p.Matches(name) {
			matches = append(matches, p)
		}
	}
	return matches
}

// KillProcess sends SIGTERM, or SIGKILL when force is set, to pid.
// Missing processes and permission failures are outcomes, not errors; only
// an unexpected OS error is returned, together with KillFailed.
// Non-positive pids are refused so a process group is never signalled.
func (c *Collector) KillProcess(pid int, force bool) (model.KillOutcome, error) {
	if pid <= 0 {
		c.log.Warn().Int("pid", pid).Msg("refusing to signal non-positive pid")
		return model.KillNoSuchProcess, nil
	}
	sig := unix.SIGTERM
	if force {
		sig = unix.SIGKILL
	}

	err := c.signal(pid, sig)
	switch {
	case err == nil:
		c.log.Info().Int("pid", pid).Bool("force", force).Msg("process signalled")
		return model.KillSucceeded, nil
	case errors.Is(err, unix.ESRCH):
		c.log.Warn().Int("pid", pid).Msg("process does not exist")
		return model.KillNoSuchProcess, nil
	case errors.Is(err, unix.EPERM):
		c.log.Warn().Int("pid", pid).Msg("no permission to signal process")
		return model.KillPermissionDenied, nil
	default:
		c.log.Error().Int("pid", pid).Err(err).Msg("signal failed")
		return model.KillFailed, fmt.Errorf("kill %d: %w", pid, err)
	}
}

// OutcomeError maps a non-success kill outcome onto the error taxonomy.
func OutcomeError(pid int, outcome model.KillOutcome) error {
	switch outcome {
	case model.KillSucceeded:
		return nil
	case model.KillNoSuchProcess:
		return fmt.Errorf("kill %d: %w", pid, ErrProcessNotFound)
	case model.KillPermissionDenied:
		return fmt.Errorf("kill %d: %w", pid, ErrPermissionDenied)
	}
	return fmt.Errorf("kill %d: failed", pid)
}
