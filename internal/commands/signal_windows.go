//go:build windows

package commands

import (
	"context"
	"os"
	"os/signal"
)

// SignalContext returns a context cancelled on interrupt.
// On Windows, only os.Interrupt is available (SIGTERM is not supported).
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
