package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLimiter_Disabled(t *testing.T) {
	ml := NewMemoryLimiter(0)
	if ml.IsEnabled() {
		t.Fatal("limiter with 0 MB should be disabled")
	}

	release, err := ml.Acquire(context.Background(), 1<<40)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()

	if ml.CurrentUsage() != 0 {
		t.Errorf("CurrentUsage() = %d, want 0", ml.CurrentUsage())
	}
}

func TestMemoryLimiter_AcquireRelease(t *testing.T) {
	ml := NewMemoryLimiter(1)
	if ml.MaxMemory() != 1<<20 {
		t.Fatalf("MaxMemory() = %d", ml.MaxMemory())
	}

	release, err := ml.Acquire(context.Background(), 1024)
	if err != nil {
		t.Fatal(err)
	}
	if got := ml.CurrentUsage(); got != Estimate(1024) {
		t.Errorf("CurrentUsage() = %d, want %d", got, Estimate(1024))
	}

	release()
	release() // повторный вызов безопасен
	if got := ml.CurrentUsage(); got != 0 {
		t.Errorf("CurrentUsage() after release = %d, want 0", got)
	}
}

func TestMemoryLimiter_OversizedAdmittedAlone(t *testing.T) {
	ml := NewMemoryLimiter(1)

	release, err := ml.Acquire(context.Background(), 10<<20)
	if err != nil {
		t.Fatalf("Acquire() of oversized file error = %v", err)
	}
	release()
}

func TestMemoryLimiter_BlocksUntilRelease(t *testing.T) {
	ml := NewMemoryLimiter(1)
	half := int64(1<<20) / decodeFactor / 2

	first, err := ml.Acquire(context.Background(), half+1)
	if err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{})
	go func() {
		release, err := ml.Acquire(context.Background(), half+1)
		if err == nil {
			release()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire() should block while memory is reserved")
	case <-time.After(50 * time.Millisecond):
	}

	first()

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second Acquire() did not proceed after release")
	}
}

func TestMemoryLimiter_ContextCancel(t *testing.T) {
	ml := NewMemoryLimiter(1)
	hold, err := ml.Acquire(context.Background(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer hold()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := ml.Acquire(ctx, 1024); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want DeadlineExceeded", err)
	}
}
