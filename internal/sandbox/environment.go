package sandbox

import "sort"

const defaultPath = "PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// containerMarker is the opaque "you are inside the sandbox" variable
// injected into every container's environment.
const containerMarker = "NEOSHELL_CONTAINER=true"

// buildEnviron implements Stage E's environment assembly: the
// inherited environment is discarded entirely, the image's runtime.env
// is overlaid by the caller's overrides, PATH is defaulted if absent,
// and HOSTNAME plus the sandbox marker are always injected.
func buildEnviron(imageEnv, override map[string]string, hostname string) []string {
	merged := make(map[string]string, len(imageEnv)+len(override)+2)
	for k, v := range imageEnv {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	if _, ok := merged["PATH"]; !ok {
		merged["PATH"] = defaultPath[len("PATH="):]
	}
	merged["HOSTNAME"] = hostname

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	env = append(env, containerMarker)
	return env
}

// truncateHostname enforces the 63-byte UTS hostname limit.
func truncateHostname(id string) string {
	if len(id) <= 63 {
		return id
	}
	return id[:63]
}
