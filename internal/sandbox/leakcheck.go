package sandbox

import (
	"strings"

	"github.com/moby/sys/mountinfo"
	"github.com/sirupsen/logrus"
)

// warnIfMountLeaked checks the host's own mount table for anything
// still rooted under rootfsDir after the sandboxed process has
// exited. A clean run leaves nothing: the mount namespace the
// container's mounts lived in was destroyed along with the inner
// process. A survivor here means the bind-mount in Stage R or one of
// Stage M's mounts escaped into the host namespace, which the caller
// needs to know about even though rootfsDir removal will still be
// attempted.
func warnIfMountLeaked(rootfsDir string, log *logrus.Logger) {
	mounts, err := mountinfo.GetMounts(mountinfo.PrefixFilter(rootfsDir))
	if err != nil {
		log.Debugf("mount leak check: %v", err)
		return
	}
	for _, m := range mounts {
		if strings.HasPrefix(m.Mountpoint, rootfsDir) {
			log.Warnf("mount leak: %s is still mounted on the host after teardown", m.Mountpoint)
		}
	}
}
