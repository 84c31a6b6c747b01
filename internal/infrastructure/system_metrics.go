package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the Go runtime.
type RuntimeStats struct {
	GoRoutines   int           `json:"goroutines"`
	HeapAlloc    uint64        `json:"heap_alloc_bytes"`
	MemorySystem uint64        `json:"memory_system_bytes"`
	GCCount      uint32        `json:"gc_count"`
	Uptime       time.Duration `json:"-"`
	UptimeText   string        `json:"uptime"`
	Timestamp    time.Time     `json:"timestamp"`
}

// RuntimeMetrics periodically publishes runtime gauges for the server.
type RuntimeMetrics struct {
	goRoutines   metric.Int64Gauge
	heapAlloc    metric.Int64Gauge
	memorySystem metric.Int64Gauge
	uptime       metric.Float64Gauge

	startTime time.Time
	interval  time.Duration

	mu   sync.RWMutex
	last RuntimeStats
}

// NewRuntimeMetrics creates the runtime gauges on meter.
func NewRuntimeMetrics(meter metric.Meter, interval time.Duration) (*RuntimeMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutine gauge: %w", err)
	}

	heapAlloc, err := meter.Int64Gauge(
		"system_memory_usage_bytes",
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory gauge: %w", err)
	}

	memorySystem, err := meter.Int64Gauge(
		"system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create system memory gauge: %w", err)
	}

	uptime, err := meter.Float64Gauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &RuntimeMetrics{
		goRoutines:   goRoutines,
		heapAlloc:    heapAlloc,
		memorySystem: memorySystem,
		uptime:       uptime,
		startTime:    time.Now(),
		interval:     interval,
	}, nil
}

// Collect samples the runtime, records the gauges and returns the sample.
func (rm *RuntimeMetrics) Collect(ctx context.Context) RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(rm.startTime)
	stats := RuntimeStats{
		GoRoutines:   runtime.NumGoroutine(),
		HeapAlloc:    memStats.HeapAlloc,
		MemorySystem: memStats.Sys,
		GCCount:      memStats.NumGC,
		Uptime:       uptime,
		UptimeText:   uptime.Round(time.Second).String(),
		Timestamp:    time.Now(),
	}

	rm.goRoutines.Record(ctx, int64(stats.GoRoutines))
	rm.heapAlloc.Record(ctx, int64(stats.HeapAlloc))
	rm.memorySystem.Record(ctx, int64(stats.MemorySystem))
	rm.uptime.Record(ctx, uptime.Seconds())

	rm.mu.Lock()
	rm.last = stats
	rm.mu.Unlock()

	return stats
}

// Last returns the most recent sample, collecting one if none exists yet.
func (rm *RuntimeMetrics) Last(ctx context.Context) RuntimeStats {
	rm.mu.RLock()
	last := rm.last
	rm.mu.RUnlock()

	if last.Timestamp.IsZero() {
		return rm.Collect(ctx)
	}
	return last
}

// Run collects on every tick until ctx is cancelled.
func (rm *RuntimeMetrics) Run(ctx context.Context) error {
	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()

	rm.Collect(ctx)
	for {
		select {
		case <-ticker.C:
			rm.Collect(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}
