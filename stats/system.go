package stats

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"webshield/logger"
)

// SystemSnapshot 系统资源状态（供管理界面展示）
type SystemSnapshot struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedMB     float64 `json:"mem_used_mb"`
	SysMemPercent float64 `json:"sys_mem_percent"`
	Goroutines    int     `json:"goroutines"`
}

// WarmupSystemStats 预热 gopsutil 的 CPU 使用率计算
// （第一次 Percent 调用总是返回 0）
func WarmupSystemStats() {
	go func() {
		if _, err := cpu.Percent(time.Second, false); err != nil {
			logger.Warnf("Failed to initialize CPU usage stats: %v", err)
		}
	}()
}

// SystemStats 采集当前进程与系统的资源状态
func SystemStats() SystemSnapshot {
	snap := SystemSnapshot{Goroutines: runtime.NumGoroutine()}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap.MemUsedMB = float64(ms.Alloc) / 1024 / 1024

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.SysMemPercent = vm.UsedPercent
	}
	return snap
}
