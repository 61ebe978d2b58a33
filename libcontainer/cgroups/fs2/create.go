package fs2

import (
	"errors"
	"os"
	"syscall"
)

// writeFile retries a write on EINTR, which cgroupfs can return under
// contention on the slow device backing it.
func writeFile(p string, content []byte) error {
	err := os.WriteFile(p, content, 0o644)
	for err != nil && errors.Is(err, syscall.EINTR) {
		err = os.WriteFile(p, content, 0o644)
	}
	return err
}

// readFile retries a read on EINTR.
func readFile(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	for err != nil && errors.Is(err, syscall.EINTR) {
		data, err = os.ReadFile(p)
	}
	return data, err
}
