package main

import (
	"fmt"
	"os"

	"github.com/0xRadioAc7iv/minibitcask/core"
	"github.com/0xRadioAc7iv/minibitcask/internal/logging"
	"github.com/0xRadioAc7iv/minibitcask/internal/utils"
)

func main() {
	cfg, err := utils.HandleCLIInputs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error while parsing flags:", err)
		os.Exit(2)
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)
	if !utils.PathExists(cfg.Path) {
		logger.Info().Str("log", cfg.Path).Msg("no existing log, starting empty")
	}

	bitcask := core.Bitcask{
		LogPath:      cfg.Path,
		Host:         cfg.Host,
		ListenerPort: cfg.Port,
		SyncInterval: cfg.SyncIntervalSeconds,
		SyncOnWrite:  cfg.SyncOnWrite,
		Logger:       logger,
	}

	if err := bitcask.Start(); err != nil {
		logger.Error().Err(err).Msg("error while starting")
		os.Exit(1)
	}
	defer bitcask.Stop()

	sig := utils.WaitForInterruptOrKill()
	logger.Info().Str("signal", sig.String()).Msg("shutting down")
}
