package helpers

import (
	"runtime"
	"runtime/debug"
)

// MemoryReport is surfaced on the health endpoint.
type MemoryReport struct {
	SystemMB    int    `json:"systemMb"`
	LimitMB     int    `json:"limitMb"`
	HeapAllocMB uint64 `json:"heapAllocMb"`
	Goroutines  int    `json:"goroutines"`
}

// RecommendedMemoryLimitMB is a quarter of physical memory, floored at 128MB.
// The monitor keeps at most a few hundred entries per subscription so it
// never needs more.
func RecommendedMemoryLimitMB() int {
	totalMB := GetTotalSystemMemoryMB()
	if totalMB == 0 {
		return 256
	}
	limit := totalMB / 4
	if limit < 128 {
		if totalMB < 128 {
			return totalMB
		}
		return 128
	}
	return limit
}

// ApplyMemoryLimit sets the runtime soft memory limit and returns it in MB.
func ApplyMemoryLimit() int {
	limit := RecommendedMemoryLimitMB()
	debug.SetMemoryLimit(int64(limit) * 1024 * 1024)
	return limit
}

func ReadMemoryReport() MemoryReport {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	limit := debug.SetMemoryLimit(-1)
	return MemoryReport{
		SystemMB:    GetTotalSystemMemoryMB(),
		LimitMB:     int(limit / 1024 / 1024),
		HeapAllocMB: ms.HeapAlloc / 1024 / 1024,
		Goroutines:  runtime.NumGoroutine(),
	}
}
