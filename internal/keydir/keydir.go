// Package keydir is the in-memory index of a bitcask log: every live key
// mapped to the location of its latest value.
//
// Keys are kept in a B-tree ordered by raw byte comparison so range and
// prefix scans can walk them in either direction.
package keydir

import (
	"bytes"

	"github.com/google/btree"
)

const degree = 32

// Entry locates a value inside the log. ValueOffset points at the first
// value byte, past the record header and the key.
type Entry struct {
	ValueOffset uint64
	ValueSize   uint32
}

// KeyEntry is a key together with its Entry.
type KeyEntry struct {
	Key []byte
	Entry
}

type item struct {
	key   []byte
	entry Entry
}

func less(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// KeyDir is not safe for concurrent use.
type KeyDir struct {
	tree *btree.BTreeG[item]
}

func New() *KeyDir {
	return &KeyDir{tree: btree.NewG(degree, less)}
}

func (kd *KeyDir) Get(key []byte) (Entry, bool) {
	it, ok := kd.tree.Get(item{key: key})
	if !ok {
		return Entry{}, false
	}
	return it.entry, true
}

// Insert sets the entry for key, replacing any earlier one. The key is
// copied.
func (kd *KeyDir) Insert(key []byte, e Entry) {
	k := make([]byte, len(key))
	copy(k, key)
	kd.tree.ReplaceOrInsert(item{key: k, entry: e})
}

// Remove deletes key and reports whether it was present.
func (kd *KeyDir) Remove(key []byte) bool {
	_, ok := kd.tree.Delete(item{key: key})
	return ok
}

func (kd *KeyDir) Len() int {
	return kd.tree.Len()
}

// Ascend calls fn for every key in r in increasing order until fn
// returns false.
func (kd *KeyDir) Ascend(r Range, fn func(key []byte, e Entry) bool) {
	visit := func(it item) bool {
		if !r.aboveLower(it.key) {
			return true
		}
		if !r.belowUpper(it.key) {
			return false
		}
		return fn(it.key, it.entry)
	}

	if r.Lower == nil {
		kd.tree.Ascend(visit)
		return
	}
	kd.tree.AscendGreaterOrEqual(item{key: r.Lower.Key}, visit)
}

// Descend calls fn for every key in r in decreasing order until fn
// returns false.
func (kd *KeyDir) Descend(r Range, fn func(key []byte, e Entry) bool) {
	visit := func(it item) bool {
		if !r.belowUpper(it.key) {
			return true
		}
		if !r.aboveLower(it.key) {
			return false
		}
		return fn(it.key, it.entry)
	}

	if r.Upper == nil {
		kd.tree.Descend(visit)
		return
	}
	kd.tree.DescendLessOrEqual(item{key: r.Upper.Key}, visit)
}

// Collect returns the entries in r in increasing key order. The returned
// keys are shared with the index and must not be modified.
func (kd *KeyDir) Collect(r Range) []KeyEntry {
	var out []KeyEntry
	kd.Ascend(r, func(key []byte, e Entry) bool {
		out = append(out, KeyEntry{Key: key, Entry: e})
		return true
	})
	return out
}
