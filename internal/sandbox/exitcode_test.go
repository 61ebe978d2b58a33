package sandbox

import (
	"os/exec"
	"testing"
)

func TestExitCodeForNormalExit(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 7")
	waitErr := cmd.Run()

	got := exitCodeFor(cmd, waitErr)
	if got != 7 {
		t.Errorf("exitCodeFor() = %d, want 7", got)
	}
}

func TestExitCodeForSignalDeath(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "kill -TERM $$")
	waitErr := cmd.Run()

	got := exitCodeFor(cmd, waitErr)
	if got != 128+15 { // SIGTERM == 15
		t.Errorf("exitCodeFor() = %d, want %d", got, 128+15)
	}
}

func TestExitCodeForMissingProcessState(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "true")
	if got := exitCodeFor(cmd, nil); got != -1 {
		t.Errorf("exitCodeFor() with nil ProcessState = %d, want -1", got)
	}
}
