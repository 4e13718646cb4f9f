package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/0xRadioAc7iv/minibitcask/internal/logging"
	"github.com/0xRadioAc7iv/minibitcask/internal/protocol"
	"github.com/0xRadioAc7iv/minibitcask/internal/server"
	"github.com/0xRadioAc7iv/minibitcask/pkg/bitcask"
)

// Bitcask serves one Store over TCP. Every command runs under a single
// mutex, since the Store itself is not safe for concurrent use.
type Bitcask struct {
	store    *bitcask.Store
	storeMu  sync.Mutex
	listener net.Listener

	serverCancel context.CancelFunc
	serverDone   chan struct{}
	syncCancel   context.CancelFunc
	syncDone     chan struct{}

	LogPath      string
	Host         string
	ListenerPort int
	SyncInterval uint // seconds between background fsyncs; 0 disables
	SyncOnWrite  bool
	Logger       *log.Logger
}

func (bk *Bitcask) Start() error {
	if bk.Logger == nil {
		bk.Logger = logging.Default()
	}
	if bk.LogPath == "" {
		bk.LogPath = DefaultLogPath
	}
	if bk.Host == "" {
		bk.Host = DefaultHost
	}

	store, err := bitcask.Open(bk.LogPath,
		bitcask.WithLogger(bk.Logger),
		bitcask.WithSyncOnWrite(bk.SyncOnWrite),
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	bk.store = store

	ln, err := server.Listen(bk.Host, bk.ListenerPort)
	if err != nil {
		bk.store.Close()
		return fmt.Errorf("listen: %w", err)
	}
	bk.listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	bk.serverCancel = cancel
	bk.serverDone = make(chan struct{})
	go func() {
		defer close(bk.serverDone)
		if err := server.Serve(ctx, ln, bk.commandHandler, bk.Logger); err != nil {
			bk.Logger.Error().Err(err).Msg("server stopped abruptly")
		}
	}()

	if bk.SyncInterval > 0 {
		syncCtx, syncCancel := context.WithCancel(context.Background())
		bk.syncCancel = syncCancel
		bk.syncDone = make(chan struct{})
		go bk.syncDiskInterval(syncCtx, bk.SyncInterval)
	}

	bk.Logger.Info().Str("addr", ln.Addr().String()).Str("log", bk.LogPath).Msg("bitcask started")

	return nil
}

// Addr returns the address the server is listening on.
func (bk *Bitcask) Addr() net.Addr {
	if bk.listener == nil {
		return nil
	}
	return bk.listener.Addr()
}

func (bk *Bitcask) commandHandler(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Unblocks DecodeCommand on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		command, err := protocol.DecodeCommand(conn)
		if err != nil {
			bk.Logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("client disconnected")
			return
		}

		status, payload := bk.handleCommand(command)
		if err := bk.reply(conn, status, payload); err != nil {
			bk.Logger.Debug().Err(err).Msg("client disconnected")
			return
		}
	}
}

func (bk *Bitcask) handleCommand(command *protocol.Command) (protocol.Status, []byte) {
	bk.storeMu.Lock()
	defer bk.storeMu.Unlock()

	switch strings.ToLower(command.Cmd) {
	case protocol.CmdPing:
		return ok("PONG!")
	case protocol.CmdGet:
		return bk.handleCommandGet(command.Key)
	case protocol.CmdSet:
		return bk.handleCommandSet(command.Key, command.Val)
	case protocol.CmdDelete:
		return bk.handleCommandDelete(command.Key)
	case protocol.CmdExists:
		return ok(strconv.FormatBool(bk.store.Has(command.Key)))
	case protocol.CmdCount:
		return ok(strconv.Itoa(bk.store.Len()))
	case protocol.CmdSize:
		return ok(strconv.FormatInt(bk.store.Size(), 10))
	case protocol.CmdList:
		return bk.handleCommandList()
	case protocol.CmdScan:
		return bk.handleCommandScan(scanRange(command.Key, command.Val), false)
	case protocol.CmdRScan:
		return bk.handleCommandScan(scanRange(command.Key, command.Val), true)
	case protocol.CmdPrefix:
		return bk.handleCommandScan(bitcask.PrefixRange(command.Key), false)
	case protocol.CmdMerge:
		return bk.handleCommandMerge()
	case protocol.CmdHelp:
		return ok(strings.TrimSpace(helpText))
	default:
		return failure(fmt.Errorf("invalid command %q", command.Cmd))
	}
}

func (bk *Bitcask) handleCommandGet(key []byte) (protocol.Status, []byte) {
	value, err := bk.store.Get(key)
	if errors.Is(err, bitcask.ErrKeyNotFound) {
		return protocol.StatusNil, nil
	}
	if err != nil {
		bk.Logger.Error().Err(err).Bytes("key", key).Msg("error while reading value")
		return failure(err)
	}
	return protocol.StatusOK, value
}

func (bk *Bitcask) handleCommandSet(key, value []byte) (protocol.Status, []byte) {
	if err := bk.store.Set(key, value); err != nil {
		bk.Logger.Error().Err(err).Bytes("key", key).Msg("error while setting value")
		return failure(err)
	}
	return ok("ok")
}

func (bk *Bitcask) handleCommandDelete(key []byte) (protocol.Status, []byte) {
	if err := bk.store.Delete(key); err != nil {
		bk.Logger.Error().Err(err).Bytes("key", key).Msg("error while deleting value")
		return failure(err)
	}
	return ok("ok")
}

func (bk *Bitcask) handleCommandList() (protocol.Status, []byte) {
	keys := bk.store.Keys()
	if len(keys) > MaxRowsPerReply {
		keys = keys[:MaxRowsPerReply]
	}

	rows := make([]protocol.Row, 0, len(keys))
	size := 0
	for _, k := range keys {
		row := protocol.Row{Key: k}
		if !fitsReply(len(rows), size, row) {
			break
		}
		size += protocol.RowSize(row)
		rows = append(rows, row)
	}
	return encodeRows(rows)
}

func (bk *Bitcask) handleCommandScan(r bitcask.Range, reverse bool) (protocol.Status, []byte) {
	it := bk.store.Scan(r)
	seq := it.Forward()
	if reverse {
		seq = it.Backward()
	}

	rows := make([]protocol.Row, 0, min(it.Len(), MaxRowsPerReply))
	size := 0
	for item := range seq {
		row := protocol.Row{Key: item.Key, Value: item.Value}
		if item.Err != nil {
			row = protocol.Row{Key: item.Key, Value: []byte(item.Err.Error()), Failed: true}
		}
		if !fitsReply(len(rows), size, row) {
			break
		}
		size += protocol.RowSize(row)
		rows = append(rows, row)
	}
	return encodeRows(rows)
}

// fitsReply reports whether row can join a reply that already holds n rows
// taking size bytes. The first row is always admitted.
func fitsReply(n, size int, row protocol.Row) bool {
	if n >= MaxRowsPerReply {
		return false
	}
	return n == 0 || size+protocol.RowSize(row) <= MaxReplyBytes
}

func encodeRows(rows []protocol.Row) (protocol.Status, []byte) {
	payload, err := protocol.EncodeRows(rows)
	if err != nil {
		return failure(err)
	}
	return protocol.StatusOK, payload
}

func (bk *Bitcask) handleCommandMerge() (protocol.Status, []byte) {
	if err := bk.store.Merge(); err != nil {
		bk.Logger.Error().Err(err).Msg("merge failed")
		return failure(err)
	}
	return ok("ok")
}

// scanRange maps the wire bounds of scan/rscan to [lower, upper). An empty
// bound is unbounded.
func scanRange(lower, upper []byte) bitcask.Range {
	var r bitcask.Range
	if len(lower) > 0 {
		r.Lower = bitcask.Included(lower)
	}
	if len(upper) > 0 {
		r.Upper = bitcask.Excluded(upper)
	}
	return r
}

func ok(msg string) (protocol.Status, []byte) {
	return protocol.StatusOK, []byte(msg)
}

func failure(err error) (protocol.Status, []byte) {
	return protocol.StatusError, []byte(err.Error())
}

func (bk *Bitcask) reply(conn net.Conn, status protocol.Status, payload []byte) error {
	encoded, err := protocol.EncodeResponse(status, payload)
	if errors.Is(err, protocol.ErrPayloadTooLarge) {
		bk.Logger.Warn().Err(err).Msg("reply too large")
		encoded, err = protocol.EncodeResponse(failure(err))
	}
	if err != nil {
		return err
	}

	_, err = conn.Write(encoded)
	return err
}

func (bk *Bitcask) syncDiskInterval(ctx context.Context, seconds uint) {
	defer close(bk.syncDone)

	ticker := time.NewTicker(time.Duration(seconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bk.storeMu.Lock()
			err := bk.store.Sync()
			bk.storeMu.Unlock()

			if err != nil {
				bk.Logger.Warn().Err(err).Msg("error syncing log")
			}

		case <-ctx.Done():
			return
		}
	}
}

// Stop shuts the server down, waits for open connections to finish and
// closes the store.
func (bk *Bitcask) Stop() {
	if bk.serverCancel != nil {
		bk.serverCancel()
		<-bk.serverDone
		bk.serverCancel = nil
	}

	if bk.syncCancel != nil {
		bk.syncCancel()
		<-bk.syncDone
		bk.syncCancel = nil
	}

	bk.storeMu.Lock()
	defer bk.storeMu.Unlock()

	if bk.store != nil {
		if err := bk.store.Close(); err != nil {
			bk.Logger.Error().Err(err).Msg("error while closing the store")
		}
		bk.store = nil
	}
}
