package bitcask_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/0xRadioAc7iv/minibitcask/internal/datafile"
	"github.com/0xRadioAc7iv/minibitcask/internal/record"
)

func TestMerge(t *testing.T) {
	s := openStore(t, logPath(t))

	mustSet(t, s, "a", "value1")
	mustSet(t, s, "b", "value2")
	mustSet(t, s, "c", "value3")
	mustDelete(t, s, "a")
	mustDelete(t, s, "b")
	mustDelete(t, s, "c")

	if err := s.Merge(); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if s.Size() != 0 {
		t.Fatalf("merge of an all-deleted log should leave it empty, got %d bytes", s.Size())
	}

	mustSet(t, s, "a", "value1")
	mustSet(t, s, "b", "value2")
	mustSet(t, s, "c", "value3")

	expectValue(t, s, "a", []byte("value1"))
	expectValue(t, s, "b", []byte("value2"))
	expectValue(t, s, "c", []byte("value3"))
}

func TestMergePreservesLiveValues(t *testing.T) {
	path := logPath(t)
	s := openStore(t, path)

	for i := 0; i < 50; i++ {
		mustSet(t, s, fmt.Sprintf("key-%02d", i%10), fmt.Sprintf("value-%d", i))
	}
	mustDelete(t, s, "key-03")
	mustSet(t, s, "empty", "")

	before := s.Size()
	if err := s.Merge(); err != nil {
		t.Fatal(err)
	}
	after := s.Size()

	if after > before {
		t.Fatalf("merge grew the log: %d -> %d", before, after)
	}

	var want int64
	for _, k := range s.Keys() {
		v, err := s.Get(k)
		if err != nil {
			t.Fatalf("get %q after merge: %v", k, err)
		}
		want += record.HeaderSizeBytes + int64(len(k)) + int64(len(v))
	}
	if after != want {
		t.Fatalf("merged log should hold one record per live key: size %d, want %d", after, want)
	}

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%02d", i)
		if i == 3 {
			expectMissing(t, s, key)
			continue
		}
		expectValue(t, s, key, []byte(fmt.Sprintf("value-%d", 40+i)))
	}
	expectValue(t, s, "empty", []byte{})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != after {
		t.Fatalf("on-disk size %d, store reports %d", info.Size(), after)
	}
	if _, err := os.Stat(datafile.MergePath(path)); !os.IsNotExist(err) {
		t.Fatalf("merge file left behind: %v", err)
	}
}

func TestMergeThenReopen(t *testing.T) {
	path := logPath(t)

	s := openStore(t, path)
	mustSet(t, s, "a", "1")
	mustSet(t, s, "a", "2")
	mustSet(t, s, "b", "3")
	mustDelete(t, s, "b")
	mustSet(t, s, "c", "4")

	if err := s.Merge(); err != nil {
		t.Fatal(err)
	}

	// writes after a merge land in the merged log
	mustSet(t, s, "d", "5")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s = openStore(t, path)
	if s.Len() != 3 {
		t.Fatalf("expected 3 live keys, got %d", s.Len())
	}
	expectValue(t, s, "a", []byte("2"))
	expectValue(t, s, "c", []byte("4"))
	expectValue(t, s, "d", []byte("5"))
	expectMissing(t, s, "b")
}

func TestMergeCyclesAreIdempotent(t *testing.T) {
	s := openStore(t, logPath(t))

	var sizes []int64
	for cycle := 0; cycle < 3; cycle++ {
		mustSet(t, s, "x", "1")
		mustSet(t, s, "y", "2")
		mustDelete(t, s, "y")
		if err := s.Merge(); err != nil {
			t.Fatal(err)
		}
		expectValue(t, s, "x", []byte("1"))
		expectMissing(t, s, "y")
		sizes = append(sizes, s.Size())
	}

	for _, size := range sizes[1:] {
		if size != sizes[0] {
			t.Fatalf("merged size changed across cycles: %v", sizes)
		}
	}
}

func TestMergeKeepsLock(t *testing.T) {
	path := logPath(t)
	s := openStore(t, path)

	mustSet(t, s, "a", "1")
	if err := s.Merge(); err != nil {
		t.Fatal(err)
	}

	if _, err := datafile.Open(path); err == nil {
		t.Fatal("merged log should still be locked by the store")
	}
}

func TestOpenDiscardsStaleMergeFile(t *testing.T) {
	path := logPath(t)

	s := openStore(t, path)
	mustSet(t, s, "a", "1")
	s.Close()

	// a crash mid-merge leaves a half-written merge file next to the log
	if err := os.WriteFile(datafile.MergePath(path), []byte{0, 0, 0, 9, 0}, 0644); err != nil {
		t.Fatal(err)
	}

	s = openStore(t, path)
	expectValue(t, s, "a", []byte("1"))

	if _, err := os.Stat(datafile.MergePath(path)); !os.IsNotExist(err) {
		t.Fatalf("stale merge file not removed: %v", err)
	}
	if err := s.Merge(); err != nil {
		t.Fatalf("merge after discarding stale file: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the log in the directory, found %d entries", len(entries))
	}
}
