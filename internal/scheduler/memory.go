package scheduler

import (
	"context"
	"runtime"
	"time"
)

// MemoryMonitor periodically samples heap usage against a configured
// limit and halves a Pool's active worker budget when it crosses
// threshold, restoring it as pressure drops.
type MemoryMonitor struct {
	pool        *Pool
	limitBytes  uint64
	threshold   float64
	interval    time.Duration
	baseWorkers int32
}

// NewMemoryMonitor returns a monitor that adjusts pool's concurrency
// against limitBytes (a soft ceiling on heap usage, e.g. derived from
// available system memory) at the given threshold fraction (default
// api.DefaultMemoryPressureThreshold).
func NewMemoryMonitor(pool *Pool, limitBytes uint64, threshold float64, interval time.Duration) *MemoryMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &MemoryMonitor{
		pool:        pool,
		limitBytes:  limitBytes,
		threshold:   threshold,
		interval:    interval,
		baseWorkers: pool.baseWorkers,
	}
}

// Run samples memory pressure until ctx is cancelled.
func (m *MemoryMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *MemoryMonitor) sample() {
	if m.limitBytes == 0 {
		return
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	pressure := float64(stats.HeapAlloc) / float64(m.limitBytes)
	if pressure > m.threshold {
		m.pool.SetActive(maxInt32(1, m.baseWorkers/2))
	} else {
		m.pool.SetActive(m.baseWorkers)
	}
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
