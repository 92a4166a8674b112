package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/TestFlowLabs/bridge/internal/marker"
	"github.com/TestFlowLabs/bridge/pkg/logging"
)

const pollInterval = 50 * time.Millisecond

// TerminatePID stops a process group this process did not spawn, such as
// one recorded in a marker by an earlier run. It sends SIGTERM, polls for
// the leader to exit, and escalates to SIGKILL after grace.
func TerminatePID(ctx context.Context, pid int, grace time.Duration) error {
	if pid <= 0 || !marker.ProcessAlive(pid) {
		return nil
	}
	if grace <= 0 {
		grace = DefaultStopGracePeriod
	}

	if err := interruptProcessGroup(pid); err != nil {
		logging.Debug(subsystem, "Failed to interrupt process group %d: %v", pid, err)
	}
	if waitGone(ctx, pid, grace) {
		return nil
	}

	logging.Warn(subsystem, "Process group %d did not exit within %s, killing it", pid, grace)
	if err := killProcessGroup(pid); err != nil && marker.ProcessAlive(pid) {
		return err
	}
	if !waitGone(context.Background(), pid, grace) {
		return fmt.Errorf("process %d did not exit after SIGKILL", pid)
	}
	return nil
}

func waitGone(ctx context.Context, pid int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()

	for {
		if !marker.ProcessAlive(pid) {
			return true
		}
		select {
		case <-tick.C:
		case <-deadline.C:
			return !marker.ProcessAlive(pid)
		case <-ctx.Done():
			return !marker.ProcessAlive(pid)
		}
	}
}
