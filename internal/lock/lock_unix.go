//go:build unix

package lock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// LockFile acquires an exclusive flock(2) on f without blocking.
//
// flock locks belong to the open file description, so two separate
// os.OpenFile calls on the same path conflict even inside one process.
func LockFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EWOULDBLOCK) {
		return fmt.Errorf("%w: %s", ErrLocked, f.Name())
	}
	return fmt.Errorf("unable to lock %s: %w", f.Name(), err)
}

// UnlockFile releases a lock acquired via LockFile. Closing the file
// releases it as well.
func UnlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
