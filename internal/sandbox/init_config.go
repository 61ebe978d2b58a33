package sandbox

// initArg is the argv[1] marker that tells a re-exec'd copy of this
// binary that it is the sandbox inner process rather than a normal
// invocation of the CLI. Mirrors the "am I init" check the reference
// implementation makes by comparing getpid() to 1.
const initArg = "__neoshell_sandbox_init__"

// initConfigFD is the file descriptor the outer process hands the
// inner process its configuration on, passed via exec.Cmd.ExtraFiles.
const initConfigFD = 3

// initConfig is everything the inner process needs once it wakes up
// inside the new namespaces; it travels from outer to inner as JSON
// over a socket pair, since flags and environment do not survive a
// clean re-exec the way we want them to.
type initConfig struct {
	RootfsDir   string            `json:"rootfsDir"`
	Cmd         []string          `json:"cmd"`
	WorkDir     string            `json:"workDir"`
	Env         map[string]string `json:"env"`
	EnvOverride map[string]string `json:"envOverride"`
	MemoryLimit string            `json:"memoryLimit"`
	CgroupID    string            `json:"cgroupId"`
}
