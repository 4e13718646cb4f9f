// Package datafile owns the single append-only log file of a bitcask store.
//
// A LogFile holds the OS file handle and its exclusive lock for as long as
// it is open. Records are only ever appended; values are read back by
// absolute offset, and the whole file can be replayed to rebuild the
// key directory.
package datafile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/0xRadioAc7iv/minibitcask/internal/keydir"
	"github.com/0xRadioAc7iv/minibitcask/internal/lock"
	"github.com/0xRadioAc7iv/minibitcask/internal/record"
	"github.com/0xRadioAc7iv/minibitcask/internal/utils"
)

// MergeFileExt is appended to the log path to name the compaction output.
const MergeFileExt = ".merge"

const replayBufferSize = 64 * 1024

// ErrCorruptLog is returned by Replay when a record runs past the end of
// the file.
var ErrCorruptLog = errors.New("corrupt log")

// ErrLogFailed is returned by appends once a failed write could not be
// rolled back. The tail of the file is unknown, so nothing more may be
// written through this handle.
var ErrLogFailed = errors.New("log file failed")

type LogFile struct {
	path string
	file *os.File
	size int64 // end of file, where the next record goes

	closed bool
	failed error // set when a torn append could not be truncated away
}

// MergePath returns the path used for the compaction output of the log
// at path.
func MergePath(path string) string {
	return path + MergeFileExt
}

// Open opens or creates the log at path, creating parent directories as
// needed, and takes an exclusive lock on it. It fails with lock.ErrLocked
// if another holder already has the lock.
func Open(path string) (*LogFile, error) {
	return open(path)
}

// Create is like Open but truncates an existing file once the lock is held.
func Create(path string) (*LogFile, error) {
	lf, err := open(path)
	if err != nil {
		return nil, err
	}

	if err := lf.file.Truncate(0); err != nil {
		lf.Close()
		return nil, fmt.Errorf("truncate %s: %w", path, err)
	}
	lf.size = 0

	return lf, nil
}

func open(path string) (*LogFile, error) {
	// 0 (special bit - ignored), 7 (rwx - owner), 5 (r-x - user group), 5 (r-x - others)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	if err := lock.LockFile(f); err != nil {
		f.Close()
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat log: %w", err)
	}

	return &LogFile{path: path, file: f, size: info.Size()}, nil
}

func (lf *LogFile) Path() string { return lf.path }

// Size is the current length of the log in bytes.
func (lf *LogFile) Size() int64 { return lf.size }

// AppendValue writes a value record for key at the end of the log and
// returns the offset the record starts at and its encoded length.
func (lf *LogFile) AppendValue(key, value []byte) (offset, length int64, err error) {
	if value == nil {
		value = []byte{}
	}
	return lf.append(key, value)
}

// AppendTombstone writes a deletion record for key at the end of the log.
func (lf *LogFile) AppendTombstone(key []byte) (offset, length int64, err error) {
	return lf.append(key, nil)
}

func (lf *LogFile) append(key, value []byte) (int64, int64, error) {
	if lf.failed != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrLogFailed, lf.failed)
	}

	encoded, err := record.Encode(key, value)
	if err != nil {
		return 0, 0, err
	}

	offset := lf.size
	n, err := lf.file.WriteAt(encoded, offset)
	if err != nil {
		// Part of the record may have reached the file even when n is 0.
		// Cut the tail back to the last whole record.
		if terr := utils.TruncateAt(lf.file, offset); terr != nil {
			lf.failed = fmt.Errorf("truncate torn record at %d: %w", offset, terr)
			return 0, 0, fmt.Errorf("%w: append record: %v (%v)", ErrLogFailed, err, lf.failed)
		}
		return 0, 0, fmt.Errorf("append record: %w", err)
	}

	lf.size += int64(n)
	return offset, int64(n), nil
}

// ReadValue reads exactly size bytes starting at offset.
func (lf *LogFile) ReadValue(offset uint64, size uint32) ([]byte, error) {
	buf := make([]byte, size)

	n, err := lf.file.ReadAt(buf, int64(offset))
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read value at %d: %w", offset, err)
}

// Replay scans the log from the first byte and rebuilds the key directory.
// A value record inserts or replaces its key; a tombstone removes it.
//
// A record whose header or body extends past the end of the file yields
// ErrCorruptLog.
func (lf *LogFile) Replay() (*keydir.KeyDir, error) {
	kd := keydir.New()

	r := bufio.NewReaderSize(io.NewSectionReader(lf.file, 0, lf.size), replayBufferSize)
	header := make([]byte, record.HeaderSizeBytes)

	var pos int64
	for pos < lf.size {
		if lf.size-pos < record.HeaderSizeBytes {
			return nil, fmt.Errorf("%w: %d trailing bytes at offset %d do not form a header", ErrCorruptLog, lf.size-pos, pos)
		}

		if _, err := io.ReadFull(r, header); err != nil {
			return nil, fmt.Errorf("read header at %d: %w", pos, err)
		}

		h, err := record.DecodeHeader(header)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptLog, err)
		}

		if pos+h.RecordSize() > lf.size {
			return nil, fmt.Errorf("%w: record at offset %d (key %d bytes, value %s) runs past end of file at %d",
				ErrCorruptLog, pos, h.KeySize, h.ValueLen, lf.size)
		}

		key := make([]byte, h.KeySize)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("read key at %d: %w", pos, err)
		}

		if h.ValueLen.IsTombstone() {
			kd.Remove(key)
		} else {
			kd.Insert(key, keydir.Entry{
				ValueOffset: uint64(pos + h.ValueOffset()),
				ValueSize:   h.ValueLen.Len(),
			})
			if _, err := r.Discard(int(h.ValueLen.Len())); err != nil {
				return nil, fmt.Errorf("skip value at %d: %w", pos, err)
			}
		}

		pos += h.RecordSize()
	}

	return kd, nil
}

// Sync commits the log to stable storage.
func (lf *LogFile) Sync() error {
	return lf.file.Sync()
}

// Rename moves the log to path while keeping the handle and the lock. On
// POSIX systems the rename atomically replaces any file already at path.
func (lf *LogFile) Rename(path string) error {
	if err := os.Rename(lf.path, path); err != nil {
		return fmt.Errorf("rename log: %w", err)
	}
	lf.path = path
	syncDir(filepath.Dir(path))

	return nil
}

// Close releases the lock and closes the file. Closing twice is a no-op.
func (lf *LogFile) Close() error {
	if lf.closed {
		return nil
	}
	lf.closed = true

	lock.UnlockFile(lf.file)
	return lf.file.Close()
}

// syncDir persists a rename. Not every platform supports fsync on a
// directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}
