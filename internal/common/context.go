package common

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithInterrupt returns a context cancelled on SIGINT or SIGTERM. The
// cleanup function stops signal delivery and must be called when done.
//
//	ctx, cleanup := common.WithInterrupt(cmd.Context())
//	defer cleanup()
func WithInterrupt(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
