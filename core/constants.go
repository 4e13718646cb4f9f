package core

import "github.com/0xRadioAc7iv/minibitcask/internal"

const (
	DefaultLogPath = internal.DEFAULT_LOG_PATH
	DefaultHost    = internal.DEFAULT_HOST

	// Upper bound on rows in one list/scan/rscan/prefix reply.
	MaxRowsPerReply = 100_000

	// Upper bound on the encoded size of a multi-row reply. A reply always
	// carries at least one row, which fits in a frame on its own.
	MaxReplyBytes = 1 << 30
)
