package imdbtsv

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
)

// Memory management constants
const (
	// maxReasonableMemoryLimit is an upper bound for configured limits (64GB)
	maxReasonableMemoryLimit = 64 * 1024

	// defaultWarningThreshold is the usage ratio reported as a warning
	defaultWarningThreshold = 0.8

	// bytesPerMB converts bytes to megabytes
	bytesPerMB = 1024 * 1024

	// Atomic operation values
	atomicEnabled  = 1
	atomicDisabled = 0
)

// MemoryLimit watches heap usage so that buffer growth stops before the process
// runs out of memory.
//
// The system supports three states:
//   - OK: Memory usage is within acceptable limits
//   - WARNING: Memory usage approaches the limit
//   - EXCEEDED: Memory usage has exceeded the limit, growth must stop
//
// Performance Note: CheckMemoryUsage() calls runtime.ReadMemStats which can
// pause for milliseconds. It is consulted once per buffer growth, never per record.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type MemoryLimit struct {
	maxMemoryMB      int64   // Maximum memory limit in MB
	warningThreshold float64 // Warning threshold as percentage (0.0-1.0)
	enabled          int32   // Atomic flag for enable/disable
}

// NewMemoryLimit creates a memory limit. A non-positive limit creates a disabled
// limit that always reports OK.
func NewMemoryLimit(maxMemoryMB int64) *MemoryLimit {
	enabled := int32(atomicEnabled)
	if maxMemoryMB <= 0 {
		enabled = atomicDisabled
	}
	if maxMemoryMB > maxReasonableMemoryLimit {
		maxMemoryMB = maxReasonableMemoryLimit
	}

	return &MemoryLimit{
		maxMemoryMB:      maxMemoryMB,
		warningThreshold: defaultWarningThreshold,
		enabled:          enabled,
	}
}

// IsEnabled returns whether memory limits are enabled
func (ml *MemoryLimit) IsEnabled() bool {
	return atomic.LoadInt32(&ml.enabled) == atomicEnabled
}

// CheckMemoryUsage checks current memory usage against limits
func (ml *MemoryLimit) CheckMemoryUsage() MemoryStatus {
	if !ml.IsEnabled() {
		return MemoryStatusOK
	}
	return ml.GetMemoryInfo().Status
}

// GetMemoryInfo returns current memory usage information
func (ml *MemoryLimit) GetMemoryInfo() MemoryInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	heapAllocMB := memStats.HeapAlloc / bytesPerMB
	var currentMB int64
	if heapAllocMB > uint64(math.MaxInt64) {
		currentMB = math.MaxInt64
	} else {
		currentMB = int64(heapAllocMB)
	}

	info := MemoryInfo{
		CurrentMB: currentMB,
		LimitMB:   ml.maxMemoryMB,
		Status:    MemoryStatusOK,
	}
	if ml.maxMemoryMB <= 0 {
		return info
	}

	info.Usage = float64(currentMB) / float64(ml.maxMemoryMB)
	switch {
	case currentMB >= ml.maxMemoryMB:
		info.Status = MemoryStatusExceeded
	case info.Usage >= ml.warningThreshold:
		info.Status = MemoryStatusWarning
	}
	return info
}

// CreateMemoryError creates a capacity error with helpful context
func (ml *MemoryLimit) CreateMemoryError(operation string) error {
	info := ml.GetMemoryInfo()
	return fmt.Errorf(
		"%w: memory limit reached during %s: using %d MB / %d MB (%.1f%%), "+
			"consider raising the memory limit or the initial buffer size",
		ErrCapacityExceeded, operation, info.CurrentMB, info.LimitMB, info.Usage*100,
	)
}

// MemoryStatus represents the current memory status
type MemoryStatus int

// Memory status constants
const (
	// MemoryStatusOK indicates memory usage is within acceptable limits
	MemoryStatusOK MemoryStatus = iota
	// MemoryStatusWarning indicates memory usage is approaching the limit
	MemoryStatusWarning
	// MemoryStatusExceeded indicates memory usage has exceeded the limit
	MemoryStatusExceeded
)

// String returns string representation of memory status
func (ms MemoryStatus) String() string {
	switch ms {
	case MemoryStatusOK:
		return "OK"
	case MemoryStatusWarning:
		return "WARNING"
	case MemoryStatusExceeded:
		return "EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// MemoryInfo contains detailed memory usage information
type MemoryInfo struct {
	CurrentMB int64        // Current memory usage in MB
	LimitMB   int64        // Memory limit in MB
	Usage     float64      // Usage percentage (0.0-1.0)
	Status    MemoryStatus // Current status
}
