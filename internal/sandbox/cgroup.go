package sandbox

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Darknessking13/neoshell/libcontainer/cgroups/fs2"
)

// installCgroupLimits implements Stage C. Every failure here degrades
// to a warning: delegated cgroup write access is environment-dependent
// and the sandbox must still run without it.
func installCgroupLimits(cfg initConfig, log *logrus.Logger) *fs2.Manager {
	mgr := fs2.NewManager(cfg.CgroupID)

	if err := mgr.Create(); err != nil {
		log.Warnf("cgroup: create leaf %s: %v", mgr.Path(), err)
		return mgr
	}

	if cfg.MemoryLimit != "" {
		if err := mgr.SetMemoryLimit(cfg.MemoryLimit); err != nil {
			log.Warnf("cgroup: set memory.max=%s: %v", cfg.MemoryLimit, err)
		}
	}

	if err := mgr.AddProc(os.Getpid()); err != nil {
		log.Warnf("cgroup: add pid %d to cgroup.procs: %v", os.Getpid(), err)
	}

	return mgr
}

// teardownCgroup best-effort removes the leaf directory. The kernel
// only allows removal once it is empty of processes, which is
// guaranteed only after the sandboxed process has fully exited, so a
// few retries absorb the race between wait() returning and the kernel
// finishing process teardown bookkeeping.
func teardownCgroup(mgr *fs2.Manager, log *logrus.Logger) {
	if mgr == nil {
		return
	}
	var err error
	for i := 0; i < 5; i++ {
		if err = mgr.Destroy(); err == nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	if current, curErr := mgr.MemoryCurrent(); curErr == nil {
		log.Warnf("cgroup: could not remove leaf %s (memory.current=%s): %v", mgr.Path(), current, err)
		return
	}
	log.Warnf("cgroup: could not remove leaf %s: %v", mgr.Path(), err)
}
