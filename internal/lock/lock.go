// Package lock places exclusive, non-blocking advisory locks on open files.
//
// A lock is held for as long as the locked file stays open. A second
// attempt to lock the same file, from this process or another one,
// fails immediately with ErrLocked instead of waiting.
package lock

import "errors"

// ErrLocked is returned when another holder already owns the lock.
var ErrLocked = errors.New("file is locked by another bitcask instance")
