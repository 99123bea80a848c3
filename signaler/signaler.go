package signaler

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/thrasher-corp/gct-backtester/log"
)

// ErrInterrupted is the cancellation cause of a context cancelled by a signal
var ErrInterrupted = errors.New("interrupted")

// WaitForInterrupt returns a channel which receives interrupt and terminate
// signals sent to the process
func WaitForInterrupt() chan os.Signal {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	return sigC
}

// CancelOnInterrupt returns a context which is cancelled with ErrInterrupted
// when the process is interrupted or terminated. stop releases the signal
// handler and cancels the context
func CancelOnInterrupt(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancelCause(parent)
	sigC := WaitForInterrupt()
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case sig := <-sigC:
			log.Warnf(log.Global, "received %v, stopping runs", sig)
			cancel(ErrInterrupted)
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		cancel(context.Canceled)
		<-done
		signal.Stop(sigC)
	}
}
