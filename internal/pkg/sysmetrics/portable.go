package sysmetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Portable sources form the generic runtime tier backed by gopsutil,
// which covers every family without shelling out. Less precise than
// the native tier but always available.

// portableCPUInterval is the sampling window for the CPU estimate;
// short enough to fit the tier timeout with room to spare.
const portableCPUInterval = 250 * time.Millisecond

type portableCPUSource struct{}

func (portableCPUSource) Metric() Metric { return CPU }
func (portableCPUSource) Tier() Tier     { return TierPortable }

func (portableCPUSource) Read(ctx context.Context) (Acquisition, error) {
	percents, err := cpu.PercentWithContext(ctx, portableCPUInterval, false)
	if err != nil {
		return Acquisition{}, err
	}
	if len(percents) == 0 {
		return Acquisition{}, fmt.Errorf("cpu percent: empty result")
	}
	return Acquisition{Percent: percents[0]}, nil
}

type portableMemorySource struct{}

func (portableMemorySource) Metric() Metric { return Memory }
func (portableMemorySource) Tier() Tier     { return TierPortable }

func (portableMemorySource) Read(ctx context.Context) (Acquisition, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Acquisition{}, err
	}
	return Acquisition{Percent: vm.UsedPercent}, nil
}

type portableDiskSource struct {
	path string
}

func (portableDiskSource) Metric() Metric { return Disk }
func (portableDiskSource) Tier() Tier     { return TierPortable }

func (s portableDiskSource) Read(ctx context.Context) (Acquisition, error) {
	du, err := disk.UsageWithContext(ctx, s.path)
	if err != nil {
		return Acquisition{}, err
	}
	return Acquisition{Percent: du.UsedPercent}, nil
}

type portableNetworkSource struct{}

func (portableNetworkSource) Metric() Metric { return Network }
func (portableNetworkSource) Tier() Tier     { return TierPortable }

func (portableNetworkSource) Read(ctx context.Context) (Acquisition, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return Acquisition{}, err
	}
	if len(counters) == 0 {
		return Acquisition{}, fmt.Errorf("net counters: empty result")
	}
	return Acquisition{Counters: &Counters{
		Used: counters[0].BytesRecv + counters[0].BytesSent,
		At:   time.Now(),
	}}, nil
}
