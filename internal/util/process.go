package util

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// StartBackgroundProcess starts a detached background process.
// The process will continue running after the parent exits.
func StartBackgroundProcess(executable string, args []string, env []string) (*os.Process, error) {
	cmd := exec.Command(executable, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if env != nil {
		cmd.Env = env
	} else {
		cmd.Env = os.Environ()
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	return cmd.Process, nil
}

// StartBackgroundIfNeeded starts a detached copy of the current executable
// with the given arguments unless isRunning already reports true, then waits
// for isRunning to become true.
func StartBackgroundIfNeeded(ctx context.Context, cfg PollConfig, isRunning func() bool, args []string) error {
	if isRunning() {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}

	if _, err := StartBackgroundProcess(exe, args, nil); err != nil {
		return err
	}

	if err := PollUntil(ctx, cfg, isRunning); err != nil {
		return fmt.Errorf("background process did not become ready in time")
	}
	return nil
}

// StopProcess attempts graceful shutdown via SIGTERM, then force kills if needed.
// The isRunning function should check if the process is still running.
func StopProcess(pid int, gracefulTimeout time.Duration, isRunning func() bool) error {
	if gracefulTimeout == 0 {
		gracefulTimeout = 10 * time.Second
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	_ = proc.Signal(syscall.SIGTERM)

	// Wait for graceful shutdown
	if WaitWithDeadline(time.Now().Add(gracefulTimeout), 100*time.Millisecond, func() bool {
		return !isRunning()
	}) {
		return nil
	}

	// Process didn't stop gracefully, force kill
	_ = proc.Signal(syscall.SIGKILL)
	time.Sleep(500 * time.Millisecond)

	if isRunning() {
		return fmt.Errorf("failed to stop process (PID %d)", pid)
	}
	return nil
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, sending signal 0 checks if process exists
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
