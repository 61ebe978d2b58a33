// Package fs2 manages a single cgroup v2 unified-hierarchy leaf.
package fs2

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// UnifiedMountpoint is where the kernel is expected to have the
// cgroup v2 unified hierarchy mounted.
const UnifiedMountpoint = "/sys/fs/cgroup"

// parentDir is the shared parent directory all leaves live under.
const parentDir = "neoshell"

// Manager owns one leaf directory under UnifiedMountpoint/neoshell.
type Manager struct {
	id   string
	path string
}

// NewManager builds a Manager for the leaf named id. It does not touch
// the filesystem; call Create to do that.
func NewManager(id string) *Manager {
	return &Manager{id: id, path: filepath.Join(UnifiedMountpoint, parentDir, id)}
}

// Path returns the leaf's absolute path.
func (m *Manager) Path() string { return m.path }

// Create ensures the shared parent directory and this leaf exist.
// Pre-existing directories (EEXIST) are not an error: leaves may be
// reused across restarts of the same cgroup id.
func (m *Manager) Create() error {
	if err := checkUnified(); err != nil {
		return err
	}
	if err := os.Mkdir(filepath.Join(UnifiedMountpoint, parentDir), 0o755); err != nil && !os.IsExist(err) {
		return err
	}
	if err := os.Mkdir(m.path, 0o755); err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

// checkUnified confirms UnifiedMountpoint is actually a cgroup v2
// mount before this package tries to write files under it: a v1
// hierarchy or a bare tmpfs mounted at the same path has the same
// directory shape but none of the control files this manager expects.
func checkUnified() error {
	var st unix.Statfs_t
	if err := unix.Statfs(UnifiedMountpoint, &st); err != nil {
		return err
	}
	if st.Type != unix.CGROUP2_SUPER_MAGIC {
		return fmt.Errorf("%s is not a cgroup2 mount", UnifiedMountpoint)
	}
	return nil
}

// SetMemoryLimit writes limit (a decimal byte count or "max")
// verbatim to memory.max.
func (m *Manager) SetMemoryLimit(limit string) error {
	return writeFile(filepath.Join(m.path, "memory.max"), []byte(limit))
}

// AddProc writes pid to cgroup.procs, joining the process to this
// leaf's control group.
func (m *Manager) AddProc(pid int) error {
	return writeFile(filepath.Join(m.path, "cgroup.procs"), []byte(strconv.Itoa(pid)))
}

// Destroy removes the leaf directory. The kernel refuses to remove a
// cgroup directory that still holds live processes, so callers should
// only call this once the sandboxed process has exited.
func (m *Manager) Destroy() error {
	return os.Remove(m.path)
}

// MemoryCurrent reads memory.current, the kernel's live count of bytes
// charged to this leaf. Used to annotate a teardown failure with how
// much memory the leaf still holds, since that's usually why the
// kernel refused to remove it.
func (m *Manager) MemoryCurrent() (string, error) {
	data, err := readFile(filepath.Join(m.path, "memory.current"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
