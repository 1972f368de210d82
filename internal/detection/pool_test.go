package detection

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoolAcquireRelease(t *testing.T) {
	p := NewPool(2, time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := p.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	stats := p.Stats()
	if stats.Size != 2 || stats.InUse != 2 || stats.TotalAcquired != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	p.Release()
	p.Release()

	stats = p.Stats()
	if stats.InUse != 0 || stats.TotalReleased != 2 {
		t.Errorf("unexpected stats after release %+v", stats)
	}
}

func TestPoolAcquireTimeout(t *testing.T) {
	p := NewPool(1, 20*time.Millisecond)
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer p.Release()

	if err := p.Acquire(ctx); err == nil {
		t.Fatal("expected timeout on exhausted pool")
	}
	if p.Stats().AcquireFailures != 1 {
		t.Errorf("expected one failure, got %d", p.Stats().AcquireFailures)
	}
}

func TestPoolAcquireCancelled(t *testing.T) {
	p := NewPool(1, time.Minute)
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPoolAcquireCancelledWithFreeSlot(t *testing.T) {
	p := NewPool(4, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 50; i++ {
		if err := p.Acquire(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("attempt %d: expected context.Canceled, got %v", i, err)
		}
	}
	stats := p.Stats()
	if stats.InUse != 0 || stats.TotalAcquired != 0 || stats.AcquireFailures != 50 {
		t.Errorf("unexpected pool stats %+v", stats)
	}
}

func TestPoolDefaults(t *testing.T) {
	p := NewPool(0, 0)
	if p.Stats().Size < 1 {
		t.Errorf("expected positive default size, got %d", p.Stats().Size)
	}
	if p.acquireTimeout != DefaultAcquireTimeout {
		t.Errorf("expected default timeout, got %v", p.acquireTimeout)
	}
}
