package platform

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/endorses/watchcat/internal/pkg/logger"
)

// Detect gathers host identification. It never fails: fields that
// cannot be determined stay zero and are logged at debug level, since
// a monitor that cannot name its host should still collect metrics.
func Detect(ctx context.Context) Info {
	info := Info{
		Family:       Current(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		CPUCount:     runtime.NumCPU(),
		DetectedAt:   time.Now(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	} else {
		logger.Debug("Hostname lookup failed", "error", err)
	}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.OSVersion = hi.PlatformVersion
		if info.OSVersion == "" {
			info.OSVersion = hi.KernelVersion
		}
	} else {
		logger.Debug("Host info lookup failed", "error", err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.TotalMemoryBytes = vm.Total
	} else {
		logger.Debug("Total memory lookup failed", "error", err)
	}

	return info
}
