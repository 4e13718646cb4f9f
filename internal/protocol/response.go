package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxPayloadSize is the largest payload a uint32 length prefix can describe.
const MaxPayloadSize = math.MaxUint32

var ErrPayloadTooLarge = errors.New("payload exceeds frame size limit")

func checkPayloadSize(n uint64) error {
	if n > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}
	return nil
}

// Status tells the client how to read a response payload.
type Status uint8

const (
	StatusOK    Status = iota // payload is a value or text
	StatusNil                 // key absent, payload empty
	StatusError               // payload is an error message
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNil:
		return "nil"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

type Response struct {
	Status  Status
	Payload []byte
}

// EncodeResponse serializes a response as
//
//	<status:uint8><len:uint32><payload>
func EncodeResponse(status Status, payload []byte) ([]byte, error) {
	if err := checkPayloadSize(uint64(len(payload))); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(status))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(payload))); err != nil {
		return nil, err
	}
	buf.Write(payload)

	return buf.Bytes(), nil
}

func DecodeResponse(r io.Reader) (*Response, error) {
	var status uint8
	var respLen uint32

	if err := binary.Read(r, binary.BigEndian, &status); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &respLen); err != nil {
		return nil, err
	}

	payload, err := readN(r, respLen)
	if err != nil {
		return nil, err
	}

	return &Response{Status: Status(status), Payload: payload}, nil
}
