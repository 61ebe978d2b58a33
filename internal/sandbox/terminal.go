package sandbox

import (
	"os"

	"github.com/containerd/console"
	"github.com/sirupsen/logrus"
)

// withRawStdin puts the caller's terminal into raw mode for the
// duration of an interactive run, when stdin is actually a terminal,
// and returns a restore func that is always safe to call.
func withRawStdin(stdin *os.File, log *logrus.Logger) func() {
	cur, err := console.ConsoleFromFile(stdin)
	if err != nil {
		// stdin is not a terminal (e.g. piped input); nothing to do.
		return func() {}
	}
	if err := cur.SetRaw(); err != nil {
		log.Debugf("terminal: set raw mode: %v", err)
		return func() {}
	}
	return func() {
		if err := cur.Reset(); err != nil {
			log.Debugf("terminal: reset mode: %v", err)
		}
	}
}
