package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Command names understood by the server.
const (
	CmdPing   = "ping"
	CmdGet    = "get"
	CmdSet    = "set"
	CmdDelete = "delete"
	CmdExists = "exists"
	CmdCount  = "count"
	CmdList   = "list"
	CmdScan   = "scan"
	CmdRScan  = "rscan"
	CmdPrefix = "prefix"
	CmdMerge  = "merge"
	CmdSize   = "size"
	CmdHelp   = "help"
)

var ErrCommandTooLong = errors.New("command name exceeds 255 bytes")

// Command represents a decoded client command received by the server.
//
// A Command consists of a command name (Cmd), an optional key, and an optional
// value. The meaning of Key and Val depends on the command type: for scan
// and rscan they are the lower and upper bound.
type Command struct {
	Cmd string // Command name (e.g. "get", "set", "delete")
	Key []byte // Key argument (may be empty)
	Val []byte // Value argument (may be empty)
}

// EncodeCommand serializes a client command into its wire format.
//
// The command is encoded as:
//
//	<cmd_len:uint8><key_len:uint32><val_len:uint32><cmd><key><val>
//
// All integer fields are encoded using big-endian byte order.
// The command name length is limited to 255 bytes.
func EncodeCommand(cmd string, key, val []byte) ([]byte, error) {
	if len(cmd) > math.MaxUint8 {
		return nil, ErrCommandTooLong
	}

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(len(cmd)))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(key))); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(val))); err != nil {
		return nil, err
	}

	buf.WriteString(cmd)
	buf.Write(key)
	buf.Write(val)

	return buf.Bytes(), nil
}

// DecodeCommand reads and decodes one command from r.
//
// It first reads the length-prefixed header fields, then reads the
// command name, key, and value payloads in sequence. DecodeCommand blocks
// until the full command has been read or an error occurs.
func DecodeCommand(r io.Reader) (*Command, error) {
	var cmdLen uint8
	var keyLen uint32
	var valLen uint32

	if err := binary.Read(r, binary.BigEndian, &cmdLen); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &keyLen); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &valLen); err != nil {
		return nil, err
	}

	cmdB := make([]byte, cmdLen)
	if _, err := io.ReadFull(r, cmdB); err != nil {
		return nil, err
	}
	keyB, err := readN(r, keyLen)
	if err != nil {
		return nil, err
	}
	valB, err := readN(r, valLen)
	if err != nil {
		return nil, err
	}

	return &Command{
		Cmd: string(cmdB),
		Key: keyB,
		Val: valB,
	}, nil
}

// readN reads exactly n bytes without allocating n up front, so a bogus
// length from a peer fails at EOF instead of exhausting memory.
func readN(r io.Reader, n uint32) ([]byte, error) {
	const chunk = 1 << 20
	if n <= chunk {
		buf := make([]byte, n)
		_, err := io.ReadFull(r, buf)
		return buf, err
	}

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
