package sandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/Darknessking13/neoshell/internal/errs"
)

// newInnerLogger logs to stderr, mirroring the reference
// implementation's rule that sandbox diagnostics never touch stdout,
// since stdout belongs to the contained process.
func newInnerLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	return log
}

// Init runs the inner side of the launcher. It is a no-op unless this
// process was re-exec'd by Run as the sandbox init process (mirrors
// the reference implementation's getpid()==1 check, adapted to Go:
// we cannot rely on PID 1 alone since Go itself is what forked us via
// clone(2), so the marker argv[1] identifies the inner invocation
// instead). Callers invoke Init as the first thing in main(); on the
// happy path it never returns, having exec'd into the target command.
func Init() {
	if len(os.Args) < 2 || os.Args[1] != initArg {
		return
	}

	if err := runInner(); err != nil {
		fmt.Fprintln(os.Stderr, "neoshell sandbox:", err)
		os.Exit(1)
	}
	// runInner only returns on success by way of exec, which never
	// returns to Go code. Reaching here would mean exec silently
	// no-op'd, which should not happen.
	fmt.Fprintln(os.Stderr, "neoshell sandbox: exec returned without error")
	os.Exit(1)
}

func runInner() error {
	configFile := os.NewFile(uintptr(initConfigFD), "sandbox-config")
	var cfg initConfig
	if err := json.NewDecoder(configFile).Decode(&cfg); err != nil {
		return errs.New(errs.KindIO, "decode sandbox init config", err)
	}
	configFile.Close()

	log := newInnerLogger()

	hostname := truncateHostname(cfg.CgroupID)
	if err := unix.Sethostname([]byte(hostname)); err != nil {
		log.Warnf("sethostname: %v", err)
	}

	mgr := installCgroupLimits(cfg, log)
	defer teardownCgroup(mgr, log)

	if err := pivotRoot(cfg.RootfsDir, log); err != nil {
		return err
	}

	if err := mountVirtualFilesystems(); err != nil {
		return err
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = "/"
	}
	if err := os.Chdir(workDir); err != nil {
		return errs.New(errs.KindIO, "chdir "+workDir, err)
	}

	if len(cfg.Cmd) == 0 {
		return errs.New(errs.KindExec, "exec target command", fmt.Errorf("empty command"))
	}
	env := buildEnviron(cfg.Env, cfg.EnvOverride, hostname)
	if err := syscall.Exec(cfg.Cmd[0], cfg.Cmd, env); err != nil {
		return errs.New(errs.KindExec, "execve "+cfg.Cmd[0], err)
	}
	return nil
}
