//go:build windows

package tui

import "context"

// toggleSignals has no external trigger on Windows; ctrl+t still works.
func toggleSignals(context.Context) <-chan struct{} {
	return nil
}
