package sysmetrics

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/endorses/watchcat/internal/pkg/platform"
)

// macOS native sources shell out to the platform's statistics tools:
// sysctl for kernel counters, vm_stat for memory pages, netstat for
// interface byte counters. Disk uses the shared df source.

// sysctlCPUSource derives CPU utilization from the kernel's one
// minute load average normalized by core count. vm.loadavg prints as
// "{ 1.23 4.56 7.89 }".
type sysctlCPUSource struct {
	runner   platform.Runner
	cpuCount int
}

func (s sysctlCPUSource) Metric() Metric { return CPU }
func (s sysctlCPUSource) Tier() Tier     { return TierNative }

func (s sysctlCPUSource) Read(ctx context.Context) (Acquisition, error) {
	if s.cpuCount <= 0 {
		return Acquisition{}, fmt.Errorf("loadavg: unknown cpu count")
	}

	out, err := s.runner.Run(ctx, "sysctl", "-n", "vm.loadavg")
	if err != nil {
		return Acquisition{}, err
	}

	fields := strings.Fields(strings.Trim(strings.TrimSpace(string(out)), "{ }"))
	if len(fields) < 1 {
		return Acquisition{}, fmt.Errorf("loadavg: empty output")
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Acquisition{}, fmt.Errorf("loadavg: %w", err)
	}

	return Acquisition{Percent: load / float64(s.cpuCount) * 100}, nil
}

// vmStatMemorySource combines total memory from sysctl hw.memsize
// with used pages from vm_stat. Used memory counts active, wired and
// compressor-occupied pages; free and inactive pages are reclaimable.
type vmStatMemorySource struct {
	runner platform.Runner
}

func (s vmStatMemorySource) Metric() Metric { return Memory }
func (s vmStatMemorySource) Tier() Tier     { return TierNative }

func (s vmStatMemorySource) Read(ctx context.Context) (Acquisition, error) {
	memsize, err := s.runner.Run(ctx, "sysctl", "-n", "hw.memsize")
	if err != nil {
		return Acquisition{}, err
	}
	total, err := strconv.ParseUint(strings.TrimSpace(string(memsize)), 10, 64)
	if err != nil || total == 0 {
		return Acquisition{}, fmt.Errorf("hw.memsize: unparseable total")
	}

	out, err := s.runner.Run(ctx, "vm_stat")
	if err != nil {
		return Acquisition{}, err
	}

	pageSize := uint64(os.Getpagesize())
	var active, wired, compressed uint64
	var found int

	for _, line := range strings.Split(string(out), "\n") {
		// Header: "Mach Virtual Memory Statistics: (page size of 16384 bytes)"
		if strings.HasPrefix(line, "Mach Virtual Memory Statistics") {
			if ps, ok := parseVMStatPageSize(line); ok {
				pageSize = ps
			}
			continue
		}
		if v, ok := parseVMStatLine(line, "Pages active"); ok {
			active = v
			found++
		} else if v, ok := parseVMStatLine(line, "Pages wired down"); ok {
			wired = v
			found++
		} else if v, ok := parseVMStatLine(line, "Pages occupied by compressor"); ok {
			compressed = v
			found++
		}
	}

	if found == 0 {
		return Acquisition{}, fmt.Errorf("vm_stat: no page counts parsed")
	}

	used := (active + wired + compressed) * pageSize
	return Acquisition{Percent: float64(used) / float64(total) * 100}, nil
}

// parseVMStatLine extracts the page count from a line like
// "Pages active:                            493882."
func parseVMStatLine(line, prefix string) (uint64, bool) {
	if !strings.HasPrefix(line, prefix) {
		return 0, false
	}
	_, rest, found := strings.Cut(line, ":")
	if !found {
		return 0, false
	}
	s := strings.TrimSuffix(strings.TrimSpace(rest), ".")
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseVMStatPageSize extracts the page size from the vm_stat header.
func parseVMStatPageSize(line string) (uint64, bool) {
	const marker = "page size of "
	idx := strings.Index(line, marker)
	if idx < 0 {
		return 0, false
	}
	fields := strings.Fields(line[idx+len(marker):])
	if len(fields) < 1 {
		return 0, false
	}
	v, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// netstatNetworkSource sums cumulative interface byte counters from
// netstat -ib. Only <Link#N> rows are counted: they carry the
// hardware counters once per interface, while per-address rows repeat
// them. Byte columns are located by distance from the row end because
// the Address cell can be empty, shifting field positions.
type netstatNetworkSource struct {
	runner platform.Runner
}

func (s netstatNetworkSource) Metric() Metric { return Network }
func (s netstatNetworkSource) Tier() Tier     { return TierNative }

func (s netstatNetworkSource) Read(ctx context.Context) (Acquisition, error) {
	out, err := s.runner.Run(ctx, "netstat", "-ib")
	if err != nil {
		return Acquisition{}, err
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 {
		return Acquisition{}, fmt.Errorf("netstat: missing data lines")
	}

	header := strings.Fields(lines[0])
	ibytesFromEnd, obytesFromEnd := -1, -1
	for i, col := range header {
		switch col {
		case "Ibytes":
			ibytesFromEnd = len(header) - i
		case "Obytes":
			obytesFromEnd = len(header) - i
		}
	}
	if ibytesFromEnd < 0 || obytesFromEnd < 0 {
		return Acquisition{}, fmt.Errorf("netstat: byte columns not found")
	}

	var totalBytes uint64
	var parsed int

	for _, line := range lines[1:] {
		if !strings.Contains(line, "<Link") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < ibytesFromEnd || len(fields) < obytesFromEnd {
			continue
		}
		if strings.HasPrefix(fields[0], "lo") {
			continue
		}
		rx, err1 := strconv.ParseUint(fields[len(fields)-ibytesFromEnd], 10, 64)
		tx, err2 := strconv.ParseUint(fields[len(fields)-obytesFromEnd], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		totalBytes += rx + tx
		parsed++
	}

	if parsed == 0 {
		return Acquisition{}, fmt.Errorf("netstat: no interfaces parsed")
	}

	return Acquisition{Counters: &Counters{
		Used: totalBytes,
		At:   time.Now(),
	}}, nil
}
