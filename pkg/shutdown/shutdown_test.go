package shutdown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestShutdownRunsAllCallbacksOnce(t *testing.T) {
	m := NewManager()
	var calls atomic.Int32
	m.OnShutdown("a", func(context.Context) error { calls.Add(1); return nil })
	m.OnShutdown("b", func(context.Context) error { calls.Add(1); return errors.New("boom") })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Shutdown(ctx)
	m.Shutdown(ctx)

	if got := calls.Load(); got != 2 {
		t.Fatalf("callbacks got=%d want=2", got)
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})
	defer close(release)
	m.OnShutdown("slow", func(context.Context) error { <-release; return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	m.Shutdown(ctx)
	if time.Since(start) > time.Second {
		t.Fatalf("shutdown did not honour ctx timeout")
	}
}

func TestShutdownNoCallbacks(t *testing.T) {
	NewManager().Shutdown(context.Background())
}
