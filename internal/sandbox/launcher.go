package sandbox

import (
	"encoding/json"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/Darknessking13/neoshell/internal/errs"
	"github.com/Darknessking13/neoshell/libcontainer/cgroups/fs2"
)

// gracePeriod is how long the outer process waits for the inner to
// exit on its own after forwarding a signal, before killing it.
const gracePeriod = 2 * time.Second

// Run is the outer half of the launcher: Stage U and Stage N happen
// implicitly as part of the clone(2) that starts the re-exec'd child
// (see doc.go), Stage F is that same clone, and everything from Stage
// C onward runs in the child via Init. Run blocks until the child
// exits and returns its exit code.
func Run(opts RunOptions) (int, error) {
	if opts.RootfsDir == "" {
		return -1, errs.New(errs.KindNamespace, "validate run options", errMissing("rootfsDir"))
	}
	if len(opts.Cmd) == 0 {
		return -1, errs.New(errs.KindExec, "validate run options", errMissing("cmd"))
	}
	cgroupID := opts.CgroupID
	if cgroupID == "" {
		cgroupID = uuid.NewString()
	}

	self, err := os.Executable()
	if err != nil {
		return -1, errs.New(errs.KindExec, "resolve self executable", err)
	}

	parentSock, childSock, err := newInitSockPair()
	if err != nil {
		return -1, errs.New(errs.KindNamespace, "create init socket pair", err)
	}
	defer parentSock.Close()

	cmd := &exec.Cmd{
		Path:       self,
		Args:       []string{self, initArg},
		Stdin:      opts.stdin(),
		Stdout:     opts.stdout(),
		Stderr:     opts.stderr(),
		ExtraFiles: []*os.File{childSock},
		SysProcAttr: &syscall.SysProcAttr{
			Cloneflags: syscall.CLONE_NEWUSER |
				syscall.CLONE_NEWPID |
				syscall.CLONE_NEWNS |
				syscall.CLONE_NEWUTS |
				syscall.CLONE_NEWIPC |
				syscall.CLONE_NEWCGROUP,
			UidMappings: []syscall.SysProcIDMap{
				{ContainerID: 0, HostID: os.Getuid(), Size: 1},
			},
			GidMappings: []syscall.SysProcIDMap{
				{ContainerID: 0, HostID: os.Getgid(), Size: 1},
			},
			GidMappingsEnableSetgroups: false,
			Setpgid:                    true,
		},
	}

	restoreTerminal := withRawStdin(opts.stdin(), logrus.StandardLogger())
	defer restoreTerminal()

	if err := cmd.Start(); err != nil {
		childSock.Close()
		return -1, errs.New(errs.KindNamespace, "start sandbox init process", err)
	}
	childSock.Close()

	cfg := initConfig{
		RootfsDir:   opts.RootfsDir,
		Cmd:         opts.Cmd,
		WorkDir:     opts.WorkDir,
		Env:         opts.Env,
		EnvOverride: opts.EnvOverride,
		MemoryLimit: opts.MemoryLimit,
		CgroupID:    cgroupID,
	}
	if err := json.NewEncoder(parentSock).Encode(cfg); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return -1, errs.New(errs.KindIO, "send sandbox init config", err)
	}

	waitErr := forwardSignalsAndWait(cmd)

	log := logrus.StandardLogger()
	teardownCgroup(fs2.NewManager(cgroupID), log)
	warnIfMountLeaked(opts.RootfsDir, log)

	return exitCodeFor(cmd, waitErr), nil
}

// forwardSignalsAndWait relays SIGINT/SIGTERM to the child's process
// group, giving it gracePeriod to exit before a forceful kill, and
// otherwise just waits for it to exit.
func forwardSignalsAndWait(cmd *exec.Cmd) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	doneCh := make(chan error, 1)
	go func() { doneCh <- cmd.Wait() }()

	for {
		select {
		case err := <-doneCh:
			return err
		case sig := <-sigCh:
			syscall.Kill(-cmd.Process.Pid, sig.(syscall.Signal))
			select {
			case err := <-doneCh:
				return err
			case <-time.After(gracePeriod):
				syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
				return <-doneCh
			}
		}
	}
}

type errMissing string

func (e errMissing) Error() string { return "missing required field " + string(e) }

// newInitSockPair opens the AF_LOCAL SOCK_STREAM pair the outer
// process hands to the child in ExtraFiles, one end each. SOCK_CLOEXEC
// keeps the parent's own end from leaking into any command the child
// later execs.
func newInitSockPair() (parent, child *os.File, err error) {
	fds, err := unix.Socketpair(unix.AF_LOCAL, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, err
	}
	return os.NewFile(uintptr(fds[1]), "sandbox-init-p"), os.NewFile(uintptr(fds[0]), "sandbox-init-c"), nil
}
