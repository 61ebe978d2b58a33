package sandbox

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/Darknessking13/neoshell/internal/errs"
)

// oldRootName is the directory pivot_root(2) receives the previous
// root at, created inside rootfsDir itself so pivot_root's requirement
// that put_old be a subdirectory of new_root is satisfied.
const oldRootName = ".old_root"

// pivotRoot implements Stage R: it replaces the process's root
// filesystem with rootfsDir, in the exact order spec'd — each step is
// a load-bearing kernel precondition for the next, not a style choice.
// Making / private and cleaning up the old root are best-effort: a
// container whose host root was already private, or whose old root
// couldn't be lazily detached, still runs correctly.
func pivotRoot(rootfsDir string, log *logrus.Logger) error {
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		log.Warnf("pivot_root: make / private: %v", err)
	}

	if err := unix.Mount(rootfsDir, rootfsDir, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return errs.New(errs.KindMount, "bind-mount rootfs onto itself", err)
	}

	oldRoot := filepath.Join(rootfsDir, oldRootName)
	if err := os.Mkdir(oldRoot, 0o700); err != nil && !os.IsExist(err) {
		return errs.New(errs.KindIO, "mkdir "+oldRoot, err)
	}

	if err := unix.PivotRoot(rootfsDir, oldRoot); err != nil {
		return errs.New(errs.KindPivot, "pivot_root("+rootfsDir+", "+oldRoot+")", err)
	}

	if err := os.Chdir("/"); err != nil {
		return errs.New(errs.KindPivot, "chdir / after pivot_root", err)
	}

	oldRootAbs := "/" + oldRootName
	if err := unix.Unmount(oldRootAbs, unix.MNT_DETACH); err != nil {
		log.Warnf("pivot_root: unmount %s: %v", oldRootAbs, err)
		return nil
	}
	if err := os.Remove(oldRootAbs); err != nil {
		log.Warnf("pivot_root: remove %s: %v", oldRootAbs, err)
	}
	return nil
}

// mountVirtualFilesystems implements Stage M. All three mounts are
// required; any failure aborts the launch.
func mountVirtualFilesystems() error {
	if err := unix.Mount("proc", "/proc", "proc", unix.MS_NOSUID|unix.MS_NODEV|unix.MS_NOEXEC, ""); err != nil {
		return errs.New(errs.KindMount, "mount /proc", err)
	}
	if err := unix.Mount("tmpfs", "/dev", "tmpfs", unix.MS_NOSUID|unix.MS_NOEXEC|unix.MS_STRICTATIME, "mode=0755,size=65536k"); err != nil {
		return errs.New(errs.KindMount, "mount /dev", err)
	}
	if err := unix.Mount("sysfs", "/sys", "sysfs", unix.MS_RDONLY|unix.MS_NOSUID|unix.MS_NODEV|unix.MS_NOEXEC, ""); err != nil {
		return errs.New(errs.KindMount, "mount /sys", err)
	}
	return nil
}
