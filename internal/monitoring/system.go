package monitoring

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is a point-in-time view of the host the API runs on.
type SystemStats struct {
	CPUPercent      float64 `json:"cpuPercent"`
	MemoryPercent   float64 `json:"memoryPercent"`
	MemoryUsedMB    uint64  `json:"memoryUsedMb"`
	MemoryTotalMB   uint64  `json:"memoryTotalMb"`
	UptimeSeconds   uint64  `json:"uptimeSeconds"`
	Goroutines      int     `json:"goroutines"`
	FeedSubscribers int     `json:"feedSubscribers"`
}

// SystemCollector reads host statistics via gopsutil.
type SystemCollector struct{}

// NewSystemCollector creates a new SystemCollector.
func NewSystemCollector() *SystemCollector {
	return &SystemCollector{}
}

// Collect samples CPU, memory and uptime. CPU usage is measured since the
// previous call, so the first sample after start may read zero.
func (c *SystemCollector) Collect(ctx context.Context) (SystemStats, error) {
	var stats SystemStats

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return stats, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read memory usage: %w", err)
	}
	stats.MemoryPercent = vm.UsedPercent
	stats.MemoryUsedMB = vm.Used / 1024 / 1024
	stats.MemoryTotalMB = vm.Total / 1024 / 1024

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read uptime: %w", err)
	}
	stats.UptimeSeconds = uptime
	stats.Goroutines = runtime.NumGoroutine()

	return stats, nil
}
