package utils

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
}

// GetSystemStats samples CPU over a short window plus current memory usage.
// Sampling failures are logged and reported as zero.
func GetSystemStats(ctx context.Context) SystemStats {
	var stats SystemStats

	percentage, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		Logger().Warn("cpu sample failed", zap.Error(err))
	} else if len(percentage) > 0 {
		stats.CPUPercent = percentage[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		Logger().Warn("memory sample failed", zap.Error(err))
	} else {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedMB = vm.Used / 1024 / 1024
	}

	return stats
}
