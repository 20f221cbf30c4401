package app

import (
	"context"
	"os/signal"
	"syscall"
)

// ContextWithSignals derives a context cancelled on SIGINT or SIGTERM.
// Cancellation fails the in-flight catalog call; ledger files are
// written whole between pipeline stages, never incrementally.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
