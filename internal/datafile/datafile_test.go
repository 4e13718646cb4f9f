package datafile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/0xRadioAc7iv/minibitcask/internal/lock"
	"github.com/0xRadioAc7iv/minibitcask/internal/record"
)

func openLog(t *testing.T, path string) *LogFile {
	t.Helper()

	lf, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	return lf
}

func mustAppend(t *testing.T, lf *LogFile, key, value string) (int64, int64) {
	t.Helper()

	offset, length, err := lf.AppendValue([]byte(key), []byte(value))
	if err != nil {
		t.Fatalf("append %q: %v", key, err)
	}
	return offset, length
}

func mustDelete(t *testing.T, lf *LogFile, key string) {
	t.Helper()

	if _, _, err := lf.AppendTombstone([]byte(key)); err != nil {
		t.Fatalf("tombstone %q: %v", key, err)
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "log")

	lf := openLog(t, path)
	defer lf.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if lf.Size() != 0 {
		t.Fatalf("expected empty log, got %d bytes", lf.Size())
	}
}

func TestAppendReturnsOffsets(t *testing.T) {
	lf := openLog(t, filepath.Join(t.TempDir(), "log"))
	defer lf.Close()

	off1, len1 := mustAppend(t, lf, "a", "val1")
	off2, len2 := mustAppend(t, lf, "bb", "")

	if off1 != 0 || len1 != record.HeaderSizeBytes+1+4 {
		t.Fatalf("first record: offset %d length %d", off1, len1)
	}
	if off2 != len1 || len2 != record.HeaderSizeBytes+2 {
		t.Fatalf("second record: offset %d length %d", off2, len2)
	}
	if lf.Size() != len1+len2 {
		t.Fatalf("size mismatch: got %d, want %d", lf.Size(), len1+len2)
	}

	value, err := lf.ReadValue(uint64(off1+len1-4), 4)
	if err != nil {
		t.Fatal(err)
	}
	if string(value) != "val1" {
		t.Fatalf("expected val1, got %q", value)
	}
}

func TestReplay(t *testing.T) {
	lf := openLog(t, filepath.Join(t.TempDir(), "log"))
	defer lf.Close()

	mustAppend(t, lf, "a", "val1")
	mustAppend(t, lf, "b", "val2")
	mustAppend(t, lf, "c", "val3")
	mustAppend(t, lf, "a", "val5")
	mustDelete(t, lf, "c")

	kd, err := lf.Replay()
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if kd.Len() != 2 {
		t.Fatalf("expected 2 live keys, got %d", kd.Len())
	}

	e, ok := kd.Get([]byte("a"))
	if !ok {
		t.Fatal("key a missing after replay")
	}
	value, err := lf.ReadValue(e.ValueOffset, e.ValueSize)
	if err != nil {
		t.Fatal(err)
	}
	if string(value) != "val5" {
		t.Fatalf("expected latest value val5, got %q", value)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	lf := openLog(t, path)
	mustAppend(t, lf, "a", "val1")
	mustAppend(t, lf, "b", "val2")
	mustAppend(t, lf, "c", "val3")
	mustAppend(t, lf, "d", "val4")
	mustDelete(t, lf, "d")
	if err := lf.Close(); err != nil {
		t.Fatal(err)
	}

	lf = openLog(t, path)
	defer lf.Close()

	kd, err := lf.Replay()
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if kd.Len() != 3 {
		t.Fatalf("expected 3 live keys, got %d", kd.Len())
	}

	// appends continue at the end of the existing file
	off, _ := mustAppend(t, lf, "e", "val5")
	if off == 0 {
		t.Fatal("append after reopen overwrote the start of the log")
	}
}

func TestReplayCorruptTail(t *testing.T) {
	full, _ := record.Encode([]byte("key"), []byte("value"))

	tests := []struct {
		name string
		tail []byte
	}{
		{"partial header", full[:5]},
		{"header without key", full[:record.HeaderSizeBytes+1]},
		{"missing value bytes", full[:len(full)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log")

			lf := openLog(t, path)
			mustAppend(t, lf, "ok", "fine")
			lf.Close()

			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				t.Fatal(err)
			}
			f.Write(tt.tail)
			f.Close()

			lf = openLog(t, path)
			defer lf.Close()

			_, err = lf.Replay()
			if !errors.Is(err, ErrCorruptLog) {
				t.Fatalf("expected ErrCorruptLog, got %v", err)
			}
		})
	}
}

func TestReadValuePastEnd(t *testing.T) {
	lf := openLog(t, filepath.Join(t.TempDir(), "log"))
	defer lf.Close()

	mustAppend(t, lf, "a", "val1")

	_, err := lf.ReadValue(uint64(lf.Size()-2), 10)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestOpenLockContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	lf := openLog(t, path)
	defer lf.Close()

	_, err := Open(path)
	if !errors.Is(err, lock.ErrLocked) {
		t.Fatalf("expected lock.ErrLocked, got %v", err)
	}
}

func TestCreateTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.merge")

	lf := openLog(t, path)
	mustAppend(t, lf, "stale", "data")
	lf.Close()

	lf, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer lf.Close()

	if lf.Size() != 0 {
		t.Fatalf("expected truncated file, got %d bytes", lf.Size())
	}
	if info, _ := os.Stat(path); info.Size() != 0 {
		t.Fatalf("file on disk not truncated: %d bytes", info.Size())
	}
}

func TestRenameReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "log")
	if err := os.WriteFile(target, []byte("old contents"), 0644); err != nil {
		t.Fatal(err)
	}

	lf := openLog(t, MergePath(target))
	defer lf.Close()
	off, length := mustAppend(t, lf, "k", "v")

	if err := lf.Rename(target); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if lf.Path() != target {
		t.Fatalf("path not updated: %s", lf.Path())
	}
	if _, err := os.Stat(MergePath(target)); !os.IsNotExist(err) {
		t.Fatalf("merge file still present: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(data)) != off+length || !bytes.HasSuffix(data, []byte("kv")) {
		t.Fatalf("target does not hold the renamed log: %q", data)
	}
}

func TestAppendAfterFailedRollbackIsRejected(t *testing.T) {
	lf := openLog(t, filepath.Join(t.TempDir(), "log"))
	defer lf.Close()

	mustAppend(t, lf, "a", "1")
	size := lf.Size()

	lf.failed = errors.New("truncate: input/output error")

	if _, _, err := lf.AppendValue([]byte("b"), []byte("2")); !errors.Is(err, ErrLogFailed) {
		t.Fatalf("expected ErrLogFailed, got %v", err)
	}
	if _, _, err := lf.AppendTombstone([]byte("a")); !errors.Is(err, ErrLogFailed) {
		t.Fatalf("expected ErrLogFailed for tombstone, got %v", err)
	}
	if lf.Size() != size {
		t.Fatalf("size moved from %d to %d", size, lf.Size())
	}
}

func TestCloseTwice(t *testing.T) {
	lf := openLog(t, filepath.Join(t.TempDir(), "log"))

	if err := lf.Close(); err != nil {
		t.Fatal(err)
	}
	if err := lf.Close(); err != nil {
		t.Fatalf("second close returned %v", err)
	}
}
