package utils

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/0xRadioAc7iv/minibitcask/internal"
)

// HandleCLIInputs parses the server flags. Values from -config are loaded
// first; any flag given explicitly on the command line overrides them.
func HandleCLIInputs(args []string) (*internal.ServerConfig, error) {
	fs := flag.NewFlagSet("bitcask", flag.ContinueOnError)

	configPath := fs.String("config", "", "Path to a YAML config file")
	path := fs.String("path", internal.DEFAULT_LOG_PATH, "Log file to be used for this instance")
	host := fs.String("host", internal.DEFAULT_HOST, "Host to bind the TCP Server to")
	port := fs.Int("port", internal.DEFAULT_PORT, "Port to use for the TCP Server")
	syncInterval := fs.Uint("sync", internal.DEFAULT_SYNC_INTERVAL, "Seconds between background fsyncs (0 disables)")
	syncOnWrite := fs.Bool("sync-on-write", false, "Fsync the log after every write")
	logLevel := fs.String("log-level", internal.DEFAULT_LOG_LEVEL, "Log level (trace, debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := internal.LoadServerConfig(*configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.Path = *path
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "sync":
			cfg.SyncIntervalSeconds = *syncInterval
		case "sync-on-write":
			cfg.SyncOnWrite = *syncOnWrite
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var ErrEmptyCommand = errors.New("empty command")

// SplitStringIntoCommandAndArguments splits a CLI line with shell quoting
// rules, so `set city "new york"` yields the value "new york".
func SplitStringIntoCommandAndArguments(line string) (cmd, key, value string, err error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", "", "", err
	}
	if len(words) == 0 {
		return "", "", "", ErrEmptyCommand
	}
	if len(words) > 3 {
		return "", "", "", fmt.Errorf("too many arguments for %q: quote values that contain spaces", words[0])
	}

	cmd = strings.ToLower(words[0])
	if len(words) > 1 {
		key = words[1]
	}
	if len(words) > 2 {
		value = words[2]
	}
	return cmd, key, value, nil
}
