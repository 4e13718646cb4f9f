package bitcask

import (
	"errors"

	"github.com/0xRadioAc7iv/minibitcask/internal/datafile"
	"github.com/0xRadioAc7iv/minibitcask/internal/lock"
	"github.com/0xRadioAc7iv/minibitcask/internal/record"
)

var (
	// ErrKeyNotFound is returned by Get when the key has no live value.
	ErrKeyNotFound = errors.New("key not found")

	// ErrClosed is returned by any operation on a closed Store.
	ErrClosed = errors.New("store is closed")

	// ErrLockContention is returned by Open when another Store holds the log.
	ErrLockContention = lock.ErrLocked

	// ErrCorruptLog is returned by Open when replay finds a truncated record.
	ErrCorruptLog = datafile.ErrCorruptLog

	ErrKeyTooLarge   = record.ErrKeyTooLarge
	ErrValueTooLarge = record.ErrValueTooLarge
)
