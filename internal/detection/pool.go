package detection

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

const DefaultAcquireTimeout = 5 * time.Second

// Pool bounds how many feature extractions run at once. The pixel scan is
// the CPU-heavy step of a detection.
type Pool struct {
	slots          chan struct{}
	size           int
	acquireTimeout time.Duration
	metrics        *poolMetrics
}

type poolMetrics struct {
	mu              sync.RWMutex
	inUse           int
	totalAcquired   int64
	totalReleased   int64
	acquireFailures int64
	waitTime        time.Duration
}

// PoolStats is a point-in-time copy of the pool counters.
type PoolStats struct {
	Size            int           `json:"pool_size"`
	InUse           int           `json:"workers_in_use"`
	TotalAcquired   int64         `json:"total_acquired"`
	TotalReleased   int64         `json:"total_released"`
	AcquireFailures int64         `json:"acquire_failures"`
	WaitTime        time.Duration `json:"wait_time_ns"`
}

func NewPool(size int, acquireTimeout time.Duration) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}

	return &Pool{
		slots:          make(chan struct{}, size),
		size:           size,
		acquireTimeout: acquireTimeout,
		metrics:        &poolMetrics{},
	}
}

// Acquire blocks until a worker slot is free, the acquire timeout passes or
// ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	start := time.Now()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.waitTime += time.Since(start)
		p.metrics.mu.Unlock()
	}()

	// A cancelled ctx never takes a free slot.
	if err := ctx.Err(); err != nil {
		p.fail()
		return err
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case p.slots <- struct{}{}:
		p.metrics.mu.Lock()
		p.metrics.inUse++
		p.metrics.totalAcquired++
		p.metrics.mu.Unlock()
		return nil
	case <-timer.C:
		p.fail()
		return fmt.Errorf("timeout waiting for available worker")
	case <-ctx.Done():
		p.fail()
		return ctx.Err()
	}
}

func (p *Pool) Release() {
	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.totalReleased++
	p.metrics.mu.Unlock()

	<-p.slots
}

func (p *Pool) fail() {
	p.metrics.mu.Lock()
	p.metrics.acquireFailures++
	p.metrics.mu.Unlock()
}

func (p *Pool) Stats() PoolStats {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	return PoolStats{
		Size:            p.size,
		InUse:           p.metrics.inUse,
		TotalAcquired:   p.metrics.totalAcquired,
		TotalReleased:   p.metrics.totalReleased,
		AcquireFailures: p.metrics.acquireFailures,
		WaitTime:        p.metrics.waitTime,
	}
}
