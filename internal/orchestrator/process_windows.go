//go:build windows

package orchestrator

import (
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
)

// shellCommand runs command through cmd.exe.
func shellCommand(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command)
}

// configureProcAttr configures the process attributes for Windows
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// interruptProcessGroup asks taskkill to close the process tree.
func interruptProcessGroup(pid int) error {
	return exec.Command("taskkill", "/T", "/PID", strconv.Itoa(pid)).Run()
}

// killProcessGroup forcibly terminates the process tree.
func killProcessGroup(pid int) error {
	if err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run(); err != nil {
		return fmt.Errorf("failed to terminate process tree %d: %w", pid, err)
	}
	return nil
}
