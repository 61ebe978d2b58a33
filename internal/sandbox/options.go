package sandbox

import "os"

// RunOptions is the launcher's contract, matching the (rootfsDir,
// header, envOverride, memoryLimit, cgroupId) tuple.
type RunOptions struct {
	RootfsDir string

	// Cmd and WorkDir come from the image header's runtime block.
	Cmd     []string
	WorkDir string
	Env     map[string]string

	// EnvOverride wins over Env on key conflicts.
	EnvOverride map[string]string

	// MemoryLimit is passed through to cgroup.memory.max unchanged;
	// empty means no limit is installed.
	MemoryLimit string

	// CgroupID names the cgroup leaf and, truncated to 63 bytes,
	// becomes the container's UTS hostname. When it is empty, Run
	// synthesises a uuid.
	CgroupID string

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

func (o RunOptions) stdin() *os.File {
	if o.Stdin != nil {
		return o.Stdin
	}
	return os.Stdin
}

func (o RunOptions) stdout() *os.File {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o RunOptions) stderr() *os.File {
	if o.Stderr != nil {
		return o.Stderr
	}
	return os.Stderr
}
