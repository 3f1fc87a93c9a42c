package main

import (
	"context"
	"os/signal"

	"golang.org/x/sys/unix"
)

// interruptContext is canceled on SIGINT or SIGTERM.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, unix.SIGINT, unix.SIGTERM)
}
