package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Row is one entry of a multi-row reply (list, scan, prefix). When Failed
// is set, Value holds the error text for that row instead of a value.
type Row struct {
	Key    []byte
	Value  []byte
	Failed bool
}

var ErrMalformedRows = errors.New("malformed row payload")

// rowHeaderSize is the flag byte plus the two uint32 length fields.
const rowHeaderSize = 1 + 4 + 4

// RowSize is the number of payload bytes r takes once encoded.
func RowSize(r Row) int {
	return rowHeaderSize + len(r.Key) + len(r.Value)
}

// EncodeRows packs rows into a response payload:
//
//	<count:uint32>(<failed:uint8><key_len:uint32><key><val_len:uint32><val>)*
//
// It fails with ErrPayloadTooLarge when the result would not fit in one
// response frame.
func EncodeRows(rows []Row) ([]byte, error) {
	total := uint64(4)
	for _, r := range rows {
		total += uint64(RowSize(r))
	}
	if err := checkPayloadSize(total); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}

	binary.Write(buf, binary.BigEndian, uint32(len(rows)))
	for _, r := range rows {
		var flag uint8
		if r.Failed {
			flag = 1
		}
		buf.WriteByte(flag)
		binary.Write(buf, binary.BigEndian, uint32(len(r.Key)))
		buf.Write(r.Key)
		binary.Write(buf, binary.BigEndian, uint32(len(r.Value)))
		buf.Write(r.Value)
	}

	return buf.Bytes(), nil
}

func DecodeRows(payload []byte) ([]Row, error) {
	r := bytes.NewReader(payload)

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, ErrMalformedRows
	}

	// every row takes at least rowHeaderSize bytes, which bounds a hostile count
	if int64(count)*rowHeaderSize > int64(r.Len()) {
		return nil, ErrMalformedRows
	}

	rows := make([]Row, 0, count)
	for i := uint32(0); i < count; i++ {
		flag, err := r.ReadByte()
		if err != nil {
			return nil, ErrMalformedRows
		}
		key, err := readField(r)
		if err != nil {
			return nil, err
		}
		value, err := readField(r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{Key: key, Value: value, Failed: flag != 0})
	}

	if r.Len() != 0 {
		return nil, ErrMalformedRows
	}
	return rows, nil
}

func readField(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, ErrMalformedRows
	}
	if int64(n) > int64(r.Len()) {
		return nil, ErrMalformedRows
	}

	field := make([]byte, n)
	if _, err := io.ReadFull(r, field); err != nil {
		return nil, ErrMalformedRows
	}
	return field, nil
}
