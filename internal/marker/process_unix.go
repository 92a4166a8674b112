//go:build !windows

package marker

import (
	"errors"
	"syscall"
)

// ProcessAlive reports whether pid names a running process. A process owned
// by another user still counts as running.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
