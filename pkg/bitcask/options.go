package bitcask

import (
	"github.com/phuslu/log"

	"github.com/0xRadioAc7iv/minibitcask/internal/logging"
)

type options struct {
	logger      *log.Logger
	syncOnWrite bool
}

type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger: logging.Default(),
	}
}

// WithLogger sets the logger used for open, merge and close events.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSyncOnWrite makes every Set and Delete fsync the log before
// returning. By default writes are handed to the OS but not synced.
func WithSyncOnWrite(sync bool) Option {
	return func(o *options) {
		o.syncOnWrite = sync
	}
}
