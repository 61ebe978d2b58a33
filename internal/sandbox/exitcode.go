package sandbox

import (
	"os/exec"
	"syscall"
)

// exitCodeFor maps a finished child to the exit code contract in
// spec.md §6: the child's own exit status on a normal exit, or
// 128+signo when it died from a signal.
func exitCodeFor(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState == nil {
		return -1
	}
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return cmd.ProcessState.ExitCode()
}
