package bitcask

import (
	"fmt"
	"os"
	"time"

	"github.com/0xRadioAc7iv/minibitcask/internal/datafile"
	"github.com/0xRadioAc7iv/minibitcask/internal/keydir"
)

// Merge compacts the log so it holds exactly one record per live key.
//
// Live values are copied into a sibling file named after the log with
// the merge extension, which is synced and then renamed over the log.
// The rename is the commit point: a crash before it leaves the old log
// untouched and the merge file is discarded on the next Open. Merge runs
// synchronously and blocks every other operation on the Store.
//
// Iterators created before Merge fail per item once it completes.
func (s *Store) Merge() error {
	if s.data == nil {
		return ErrClosed
	}

	start := time.Now()
	before := s.data.Size()
	mergePath := datafile.MergePath(s.path)

	merged, err := datafile.Create(mergePath)
	if err != nil {
		return fmt.Errorf("create merge file: %w", err)
	}

	kd, err := s.rewrite(merged)
	if err == nil {
		err = merged.Sync()
	}
	if err == nil {
		err = merged.Rename(s.path)
	}
	if err != nil {
		merged.Close()
		os.Remove(mergePath)
		return fmt.Errorf("merge: %w", err)
	}

	old := s.data
	s.data = merged
	s.keyDir = kd

	if err := old.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close pre-merge log")
	}

	s.logger.Info().
		Str("path", s.path).
		Int("keys", kd.Len()).
		Int64("before_bytes", before).
		Int64("after_bytes", merged.Size()).
		Dur("took", time.Since(start)).
		Msg("merge complete")

	return nil
}

// rewrite copies every live value into dst and returns the key directory
// describing dst.
func (s *Store) rewrite(dst *datafile.LogFile) (*keydir.KeyDir, error) {
	kd := keydir.New()

	var err error
	s.keyDir.Ascend(keydir.All, func(key []byte, e keydir.Entry) bool {
		var value []byte
		value, err = s.data.ReadValue(e.ValueOffset, e.ValueSize)
		if err != nil {
			return false
		}

		var offset, length int64
		offset, length, err = dst.AppendValue(key, value)
		if err != nil {
			return false
		}

		kd.Insert(key, keydir.Entry{
			ValueOffset: uint64(offset + length - int64(e.ValueSize)),
			ValueSize:   e.ValueSize,
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	return kd, nil
}
