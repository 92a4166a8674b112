//go:build !windows

package orchestrator

import (
	"fmt"
	"os/exec"
	"syscall"
)

// shellCommand runs command through the POSIX shell.
func shellCommand(command string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", command)
}

// configureProcAttr configures the process attributes for creating a new process group
func configureProcAttr(cmd *exec.Cmd) {
	// Dev servers fork watchers and compilers; a dedicated group lets Stop
	// reach all of them with one signal.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// interruptProcessGroup asks the child and its descendants to shut down.
func interruptProcessGroup(pid int) error {
	return signalProcessGroup(pid, syscall.SIGTERM)
}

// killProcessGroup forcibly terminates the child and its descendants.
func killProcessGroup(pid int) error {
	return signalProcessGroup(pid, syscall.SIGKILL)
}

func signalProcessGroup(pid int, sig syscall.Signal) error {
	// Kill the process group (negative PID kills the entire process group)
	if err := syscall.Kill(-pid, sig); err != nil {
		// If process group kill fails, try to kill the individual process
		if err2 := syscall.Kill(pid, sig); err2 != nil {
			return fmt.Errorf("failed to signal process group -%d: %v, also failed to signal process %d: %v", pid, err, pid, err2)
		}
	}
	return nil
}
