//go:build !windows

package tui

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// toggleSignals delivers one value per SIGUSR1 until ctx is done, so
// `kill -USR1 <pid>` toggles the dialog from outside the terminal.
func toggleSignals(ctx context.Context) <-chan struct{} {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)
	out := make(chan struct{})
	go func() {
		defer signal.Stop(sigChan)
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigChan:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
