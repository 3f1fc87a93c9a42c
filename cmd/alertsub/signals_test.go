package main

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestInterruptContext(t *testing.T) {
	ctx, cancel := interruptContext(context.Background())
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		proc, _ := os.FindProcess(os.Getpid())
		_ = proc.Signal(os.Interrupt)
	}()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("interruptContext was not canceled by SIGINT")
	}
}

func TestInterruptContext_ParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := interruptContext(parent)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("child context should follow parent cancellation")
	}
}
