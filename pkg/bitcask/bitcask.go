package bitcask

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/phuslu/log"

	"github.com/0xRadioAc7iv/minibitcask/internal/datafile"
	"github.com/0xRadioAc7iv/minibitcask/internal/keydir"
)

// Store composes the log file with the key directory built from it.
type Store struct {
	path   string
	data   *datafile.LogFile
	keyDir *keydir.KeyDir

	logger      *log.Logger
	syncOnWrite bool
}

// Open opens the log at path, creating it and its parent directories if
// needed, and replays it into a fresh key directory.
//
// Open fails with ErrLockContention when another Store holds the log and
// with ErrCorruptLog when the log ends in a truncated record.
func Open(path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	start := time.Now()

	lf, err := datafile.Open(path)
	if err != nil {
		return nil, err
	}

	// The lock on the log is held, so nobody else can be merging. A merge
	// file left behind was never committed and the log is still intact.
	if err := discardStaleMerge(path, o.logger); err != nil {
		lf.Close()
		return nil, err
	}

	kd, err := lf.Replay()
	if err != nil {
		lf.Close()
		return nil, err
	}

	o.logger.Info().
		Str("path", path).
		Int("keys", kd.Len()).
		Int64("log_bytes", lf.Size()).
		Dur("replay", time.Since(start)).
		Msg("store opened")

	return &Store{
		path:        path,
		data:        lf,
		keyDir:      kd,
		logger:      o.logger,
		syncOnWrite: o.syncOnWrite,
	}, nil
}

func discardStaleMerge(path string, logger *log.Logger) error {
	mergePath := datafile.MergePath(path)

	err := os.Remove(mergePath)
	if err == nil {
		logger.Warn().Str("path", mergePath).Msg("removed incomplete merge file")
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove stale merge file: %w", err)
}

// Path returns the location of the log file.
func (s *Store) Path() string { return s.path }

// Len returns the number of live keys.
func (s *Store) Len() int {
	if s.data == nil {
		return 0
	}
	return s.keyDir.Len()
}

// Size returns the current log size in bytes.
func (s *Store) Size() int64 {
	if s.data == nil {
		return 0
	}
	return s.data.Size()
}

// Get returns the latest value stored for key, or ErrKeyNotFound.
func (s *Store) Get(key []byte) ([]byte, error) {
	if s.data == nil {
		return nil, ErrClosed
	}

	e, ok := s.keyDir.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	return s.data.ReadValue(e.ValueOffset, e.ValueSize)
}

// Has reports whether key has a live value. It does not touch the log.
func (s *Store) Has(key []byte) bool {
	if s.data == nil {
		return false
	}
	_, ok := s.keyDir.Get(key)
	return ok
}

// Set appends a value record for key and points the key directory at it.
// A nil value is stored as an empty value, not as a deletion.
//
// With WithSyncOnWrite, a sync error is returned after the write has
// already been applied: the new value is visible, but may not survive a
// crash.
func (s *Store) Set(key, value []byte) error {
	if s.data == nil {
		return ErrClosed
	}

	offset, length, err := s.data.AppendValue(key, value)
	if err != nil {
		return err
	}

	s.keyDir.Insert(key, keydir.Entry{
		ValueOffset: uint64(offset + length - int64(len(value))),
		ValueSize:   uint32(len(value)),
	})

	return s.maybeSync()
}

// Delete appends a tombstone for key and drops it from the key directory.
// Deleting an absent key still appends a tombstone. A sync error is
// reported the same way as for Set.
func (s *Store) Delete(key []byte) error {
	if s.data == nil {
		return ErrClosed
	}

	if _, _, err := s.data.AppendTombstone(key); err != nil {
		return err
	}

	s.keyDir.Remove(key)
	return s.maybeSync()
}

func (s *Store) maybeSync() error {
	if !s.syncOnWrite {
		return nil
	}
	if err := syncLog(s.data); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}

// syncLog is replaced in tests to simulate a failing fsync.
var syncLog = (*datafile.LogFile).Sync

// Keys returns every live key in increasing order.
func (s *Store) Keys() [][]byte {
	if s.data == nil {
		return nil
	}

	keys := make([][]byte, 0, s.keyDir.Len())
	s.keyDir.Ascend(keydir.All, func(key []byte, _ keydir.Entry) bool {
		k := make([]byte, len(key))
		copy(k, key)
		keys = append(keys, k)
		return true
	})
	return keys
}

// Sync commits the log to stable storage.
func (s *Store) Sync() error {
	if s.data == nil {
		return ErrClosed
	}
	return s.data.Sync()
}

// Close syncs the log, releases its lock and closes it. A sync failure is
// logged, not returned. Closing a closed Store is a no-op.
func (s *Store) Close() error {
	if s.data == nil {
		return nil
	}

	if err := s.data.Sync(); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to sync log on close")
	}

	err := s.data.Close()
	s.data = nil
	s.keyDir = nil

	return err
}
