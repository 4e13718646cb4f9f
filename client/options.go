package client

import (
	"time"

	"github.com/0xRadioAc7iv/minibitcask/internal"
)

type Option func(*internal.Config)

func WithHost(host string) Option {
	return func(c *internal.Config) {
		c.Host = host
	}
}

func WithPort(port int) Option {
	return func(c *internal.Config) {
		c.Port = port
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(c *internal.Config) {
		c.DialTimeout = d
	}
}
