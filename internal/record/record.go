package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Each length field is 4 bytes, big-endian.
const LengthFieldSizeBytes = 4

// KeySize (4) + ValueSize or tombstone marker (4)
const HeaderSizeBytes = 2 * LengthFieldSizeBytes

// tombstoneMarker is written in the value length field of a deletion record.
const tombstoneMarker int32 = -1

// MaxValueSize is the largest value a record can carry. The value length
// shares a signed 32-bit field with the tombstone marker.
const MaxValueSize = math.MaxInt32

// MaxKeySize is the largest key a record can carry.
const MaxKeySize = math.MaxUint32

var (
	// ErrFraming is returned when a buffer is too short to hold a header.
	ErrFraming = errors.New("record: truncated header")

	ErrKeyTooLarge   = errors.New("record: key exceeds maximum size")
	ErrValueTooLarge = errors.New("record: value exceeds maximum size")
)

// ValueLen is the decoded value length field: either a byte count or a
// tombstone.
type ValueLen struct {
	n         uint32
	tombstone bool
}

// Length returns a ValueLen describing a value of n bytes.
func Length(n uint32) ValueLen { return ValueLen{n: n} }

// Tombstone returns a ValueLen describing a deletion.
func Tombstone() ValueLen { return ValueLen{tombstone: true} }

func (v ValueLen) IsTombstone() bool { return v.tombstone }

// Len returns the value byte count. It is zero for a tombstone.
func (v ValueLen) Len() uint32 {
	if v.tombstone {
		return 0
	}
	return v.n
}

func (v ValueLen) String() string {
	if v.tombstone {
		return "tombstone"
	}
	return fmt.Sprintf("%d", v.n)
}

// Header is the fixed-size prefix of every record.
type Header struct {
	KeySize  uint32
	ValueLen ValueLen
}

// RecordSize is the total encoded size of the record the header belongs to.
func (h Header) RecordSize() int64 {
	return HeaderSizeBytes + int64(h.KeySize) + int64(h.ValueLen.Len())
}

// ValueOffset is the distance from the start of the record to its first
// value byte.
func (h Header) ValueOffset() int64 {
	return HeaderSizeBytes + int64(h.KeySize)
}

// Encode frames key and value as a single record:
//
//	<key_len:uint32><value_len:int32><key><value>
//
// A nil value encodes a tombstone. An empty, non-nil value is a real
// zero-length value.
func Encode(key, value []byte) ([]byte, error) {
	if uint64(len(key)) > MaxKeySize {
		return nil, ErrKeyTooLarge
	}

	valueField := tombstoneMarker
	if value != nil {
		if len(value) > MaxValueSize {
			return nil, ErrValueTooLarge
		}
		valueField = int32(len(value))
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSizeBytes+len(key)+len(value)))

	if err := binary.Write(buf, binary.BigEndian, uint32(len(key))); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, valueField); err != nil {
		return nil, err
	}
	buf.Write(key)
	if value != nil {
		buf.Write(value)
	}

	return buf.Bytes(), nil
}

// EncodeTombstone frames a deletion record for key.
func EncodeTombstone(key []byte) ([]byte, error) {
	return Encode(key, nil)
}

// DecodeHeader parses the first HeaderSizeBytes of data. It performs no I/O.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSizeBytes {
		return Header{}, fmt.Errorf("%w: have %d bytes, need %d", ErrFraming, len(data), HeaderSizeBytes)
	}

	keySize := binary.BigEndian.Uint32(data[:LengthFieldSizeBytes])
	valueField := int32(binary.BigEndian.Uint32(data[LengthFieldSizeBytes:HeaderSizeBytes]))

	h := Header{KeySize: keySize}
	if valueField < 0 {
		h.ValueLen = Tombstone()
	} else {
		h.ValueLen = Length(uint32(valueField))
	}

	return h, nil
}
