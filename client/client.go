package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/0xRadioAc7iv/minibitcask/internal"
	"github.com/0xRadioAc7iv/minibitcask/internal/protocol"
)

// ErrNotFound is returned by Get when the server has no value for the key.
var ErrNotFound = errors.New("key not found")

// ServerError carries an error message sent back by the server.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string { return "server: " + e.Msg }

// Row is one key/value pair of a list, scan or prefix reply. Failed rows
// hold the server's error text in Value.
type Row = protocol.Row

// Client is safe for concurrent use; requests on one connection are
// serialized.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

func Connect(opts ...Option) (*Client, error) {
	cfg := internal.DefaultConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	conn, err := net.DialTimeout("tcp", addr, cfg.DialTimeout)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Ping() error {
	_, err := c.expectOK(protocol.CmdPing, nil, nil)
	return err
}

func (c *Client) Get(key []byte) ([]byte, error) {
	resp, err := c.Execute(protocol.CmdGet, key, nil)
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case protocol.StatusOK:
		return resp.Payload, nil
	case protocol.StatusNil:
		return nil, ErrNotFound
	default:
		return nil, &ServerError{Msg: string(resp.Payload)}
	}
}

func (c *Client) Set(key, value []byte) error {
	_, err := c.expectOK(protocol.CmdSet, key, value)
	return err
}

func (c *Client) Delete(key []byte) error {
	_, err := c.expectOK(protocol.CmdDelete, key, nil)
	return err
}

func (c *Client) Exists(key []byte) (bool, error) {
	payload, err := c.expectOK(protocol.CmdExists, key, nil)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(string(payload))
}

func (c *Client) Count() (int, error) {
	payload, err := c.expectOK(protocol.CmdCount, nil, nil)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(payload))
}

// Size returns the server's log size in bytes.
func (c *Client) Size() (int64, error) {
	payload, err := c.expectOK(protocol.CmdSize, nil, nil)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(payload), 10, 64)
}

// List returns every live key in increasing order.
func (c *Client) List() ([][]byte, error) {
	rows, err := c.rows(protocol.CmdList, nil, nil)
	if err != nil {
		return nil, err
	}

	keys := make([][]byte, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	return keys, nil
}

// Scan returns the pairs with from <= key < to in increasing order. A nil
// or empty bound is unbounded.
func (c *Client) Scan(from, to []byte) ([]Row, error) {
	return c.rows(protocol.CmdScan, from, to)
}

// RScan is Scan in decreasing key order.
func (c *Client) RScan(from, to []byte) ([]Row, error) {
	return c.rows(protocol.CmdRScan, from, to)
}

func (c *Client) Prefix(prefix []byte) ([]Row, error) {
	return c.rows(protocol.CmdPrefix, prefix, nil)
}

// Merge asks the server to compact its log and waits for it to finish.
func (c *Client) Merge() error {
	_, err := c.expectOK(protocol.CmdMerge, nil, nil)
	return err
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute sends one raw command and returns the undecoded response.
func (c *Client) Execute(cmd string, key, value []byte) (*protocol.Response, error) {
	payload, err := protocol.EncodeCommand(cmd, key, value)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.conn.Write(payload); err != nil {
		return nil, err
	}

	return protocol.DecodeResponse(c.conn)
}

func (c *Client) expectOK(cmd string, key, value []byte) ([]byte, error) {
	resp, err := c.Execute(cmd, key, value)
	if err != nil {
		return nil, err
	}
	if resp.Status != protocol.StatusOK {
		return nil, &ServerError{Msg: fmt.Sprintf("%s: %s", resp.Status, resp.Payload)}
	}
	return resp.Payload, nil
}

func (c *Client) rows(cmd string, key, value []byte) ([]Row, error) {
	payload, err := c.expectOK(cmd, key, value)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeRows(payload)
}
