package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/phuslu/log"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = 1 * time.Second
)

// maxPortProbes bounds how far Listen walks up from the requested port.
const maxPortProbes = 100

// Listen binds a TCP listener on host:port. If the port is taken it tries
// the following ports, so the caller should read the bound address back
// from the listener. Port 0 lets the OS choose.
func Listen(host string, port int) (net.Listener, error) {
	var lastErr error

	for i := 0; i < maxPortProbes; i++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port+i))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) || port == 0 {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("no free port in %d..%d: %w", port, port+maxPortProbes-1, lastErr)
}

// Serve accepts connections on ln and runs handler for each one in its own
// goroutine. It returns nil once ctx is cancelled, after every handler has
// returned.
func Serve(ctx context.Context, ln net.Listener, handler func(ctx context.Context, conn net.Conn), logger *log.Logger) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	// When ctx is cancelled, close listener
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			// Errors such as EMFILE persist until a connection is closed.
			backoff = nextBackoff(backoff)
			logger.Warn().Err(err).Dur("retry_in", backoff).Msg("error accepting connection")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		wg.Add(1)
		go func() {
			defer wg.Done()
			handler(ctx, conn)
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptBackoff
	}
	return min(d*2, maxAcceptBackoff)
}
