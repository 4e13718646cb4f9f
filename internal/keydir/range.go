package keydir

import "bytes"

// Bound is one end of a Range.
type Bound struct {
	Key       []byte
	Exclusive bool
}

// Included returns a bound that contains key.
func Included(key []byte) *Bound { return &Bound{Key: key} }

// Excluded returns a bound that stops just short of key.
func Excluded(key []byte) *Bound { return &Bound{Key: key, Exclusive: true} }

// Range selects keys between Lower and Upper. A nil bound is unbounded.
type Range struct {
	Lower *Bound
	Upper *Bound
}

// All is the range covering every key.
var All = Range{}

// Between returns the half-open range [lower, upper).
func Between(lower, upper []byte) Range {
	return Range{Lower: Included(lower), Upper: Excluded(upper)}
}

// Prefix returns the range holding exactly the keys that start with prefix.
//
// The upper bound is prefix with its last byte incremented. Trailing 0xFF
// bytes cannot be incremented, so they are dropped first; a prefix made
// only of 0xFF bytes (or an empty one) has no upper bound.
func Prefix(prefix []byte) Range {
	r := Range{Lower: Included(prefix)}
	if upper := prefixSuccessor(prefix); upper != nil {
		r.Upper = Excluded(upper)
	}
	return r
}

func prefixSuccessor(prefix []byte) []byte {
	end := len(prefix)
	for end > 0 && prefix[end-1] == 0xff {
		end--
	}
	if end == 0 {
		return nil
	}

	upper := make([]byte, end)
	copy(upper, prefix[:end])
	upper[end-1]++
	return upper
}

// Contains reports whether key falls inside r.
func (r Range) Contains(key []byte) bool {
	return r.aboveLower(key) && r.belowUpper(key)
}

func (r Range) aboveLower(key []byte) bool {
	if r.Lower == nil {
		return true
	}
	c := bytes.Compare(key, r.Lower.Key)
	return c > 0 || (c == 0 && !r.Lower.Exclusive)
}

func (r Range) belowUpper(key []byte) bool {
	if r.Upper == nil {
		return true
	}
	c := bytes.Compare(key, r.Upper.Key)
	return c < 0 || (c == 0 && !r.Upper.Exclusive)
}
