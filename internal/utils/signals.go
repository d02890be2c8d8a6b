package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// CancelOnSignal cancels ctx's cancel func when SIGINT or SIGTERM arrives,
// letting an in-flight get_file/put_file unwind cleanly (it sends
// ERROR{0,"Cancelled"} to the peer before closing its socket — spec.md §5).
// It returns a stop function the caller should defer to release the signal
// handler once the transfer has finished on its own.
func CancelOnSignal(cancel context.CancelFunc, logger *Logger) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("received signal %s, cancelling transfer", sig)
			cancel()
		case <-done:
		}
	}()

	return func() {
		close(done)
		signal.Stop(sigChan)
	}
}
