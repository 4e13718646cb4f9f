package bitcask

import (
	"iter"

	"github.com/0xRadioAc7iv/minibitcask/internal/datafile"
	"github.com/0xRadioAc7iv/minibitcask/internal/keydir"
)

type (
	Bound = keydir.Bound
	Range = keydir.Range
)

// Included returns a range bound that contains key.
func Included(key []byte) *Bound { return keydir.Included(key) }

// Excluded returns a range bound that stops just short of key.
func Excluded(key []byte) *Bound { return keydir.Excluded(key) }

// Between returns the half-open range [lower, upper).
func Between(lower, upper []byte) Range { return keydir.Between(lower, upper) }

// PrefixRange returns the range of keys starting with prefix. See
// ScanPrefix for how a prefix ending in 0xFF is handled.
func PrefixRange(prefix []byte) Range { return keydir.Prefix(prefix) }

// All covers every key.
var All = keydir.All

// Item is one key-value pair produced by a scan. Err is set when the value
// could not be read; the key is still reported and the scan continues.
type Item struct {
	Key   []byte
	Value []byte
	Err   error
}

// Iterator walks the keys of a range in order and reads each value from
// the log when it is reached. It can be consumed from either end; the two
// ends meet in the middle and never yield the same key twice.
type Iterator struct {
	data    *datafile.LogFile
	entries []keydir.KeyEntry
	front   int
	back    int
}

// Scan returns an iterator over the live keys in r. The set of keys is
// fixed when Scan is called; values are read lazily.
func (s *Store) Scan(r Range) *Iterator {
	if s.data == nil {
		return &Iterator{}
	}

	entries := s.keyDir.Collect(r)
	return &Iterator{
		data:    s.data,
		entries: entries,
		back:    len(entries),
	}
}

// ScanPrefix returns an iterator over the live keys that start with
// prefix. The upper bound is the prefix with its last byte incremented;
// trailing 0xFF bytes are dropped first, and a prefix of only 0xFF bytes
// scans to the end of the key space. An empty prefix scans everything.
func (s *Store) ScanPrefix(prefix []byte) *Iterator {
	return s.Scan(keydir.Prefix(prefix))
}

// Len returns the number of items not yet consumed.
func (it *Iterator) Len() int {
	return it.back - it.front
}

// Next returns the smallest remaining item.
func (it *Iterator) Next() (Item, bool) {
	if it.front >= it.back {
		return Item{}, false
	}
	e := it.entries[it.front]
	it.front++
	return it.read(e), true
}

// NextBack returns the largest remaining item.
func (it *Iterator) NextBack() (Item, bool) {
	if it.front >= it.back {
		return Item{}, false
	}
	it.back--
	return it.read(it.entries[it.back]), true
}

// Forward yields the remaining items in increasing key order.
func (it *Iterator) Forward() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for {
			item, ok := it.Next()
			if !ok || !yield(item) {
				return
			}
		}
	}
}

// Backward yields the remaining items in decreasing key order.
func (it *Iterator) Backward() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for {
			item, ok := it.NextBack()
			if !ok || !yield(item) {
				return
			}
		}
	}
}

func (it *Iterator) read(e keydir.KeyEntry) Item {
	key := make([]byte, len(e.Key))
	copy(key, e.Key)

	value, err := it.data.ReadValue(e.ValueOffset, e.ValueSize)
	if err != nil {
		return Item{Key: key, Err: err}
	}
	return Item{Key: key, Value: value}
}
