package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// WaitForInterruptOrKill blocks until it receives an interrupt (Ctrl+C)
// or termination signal (SIGTERM) and returns it.
func WaitForInterruptOrKill() os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return <-sigChan
}
