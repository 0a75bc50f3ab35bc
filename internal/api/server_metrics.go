package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics сведения о процессе для /api/stats
type ServerMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{StartTime: time.Now()}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = p
	}
	return sm
}

// Uptime время работы в виде "1д 2ч 3м 4с"
func (sm *ServerMetrics) Uptime() string {
	uptime := time.Since(sm.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// Snapshot память Go-рантайма и, если доступно, CPU/RSS процесса
func (sm *ServerMetrics) Snapshot() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	out := map[string]interface{}{
		"uptime":      sm.Uptime(),
		"heap_mb":     fmt.Sprintf("%.2f", float64(m.HeapAlloc)/1024/1024),
		"goroutines":  runtime.NumGoroutine(),
		"gc_cycles":   m.NumGC,
		"server_time": time.Now().Unix(),
	}
	if sm.proc != nil {
		if cpu, err := sm.proc.CPUPercent(); err == nil {
			out["cpu_percent"] = fmt.Sprintf("%.2f", cpu)
		}
		if mem, err := sm.proc.MemoryInfo(); err == nil {
			out["rss_mb"] = fmt.Sprintf("%.2f", float64(mem.RSS)/1024/1024)
		}
	}
	return out
}
