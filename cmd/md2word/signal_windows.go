//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// shutdownSignals cancel a running conversion batch. Windows delivers only
// os.Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}

// notifyContext returns a context canceled on the first shutdown signal.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
