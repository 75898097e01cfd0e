package sysmetrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/endorses/watchcat/internal/pkg/platform"
)

// Windows native sources query WMI performance classes through wmic.
// Raw perf counters accumulate 100ns units, so CPU gets the same
// two-reading delta treatment as /proc/stat ticks.

// parseWmicCSV parses wmic /format:csv output into header-keyed rows.
// The output starts with a blank line and uses CRLF endings; rows for
// multi-instance classes repeat under one header.
func parseWmicCSV(out []byte) ([]map[string]string, error) {
	var header []string
	var rows []map[string]string

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cols := strings.Split(line, ",")
		if header == nil {
			header = cols
			continue
		}
		if len(cols) != len(header) {
			continue
		}
		row := make(map[string]string, len(cols))
		for i, h := range header {
			row[strings.TrimSpace(h)] = strings.TrimSpace(cols[i])
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("wmic: no data rows")
	}
	return rows, nil
}

// wmicUint reads one named column of a row as uint64.
func wmicUint(row map[string]string, key string) (uint64, error) {
	v, ok := row[key]
	if !ok {
		return 0, fmt.Errorf("wmic: column %s missing", key)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("wmic: column %s: %w", key, err)
	}
	return n, nil
}

// wmicCPUSource reads the _Total processor raw counters. In
// Win32_PerfRawData_PerfOS_Processor, PercentProcessorTime
// accumulates idle time and Timestamp_Sys100NS accumulates total
// time, both in 100ns units.
type wmicCPUSource struct {
	runner platform.Runner
}

func (s wmicCPUSource) Metric() Metric { return CPU }
func (s wmicCPUSource) Tier() Tier     { return TierNative }

func (s wmicCPUSource) Read(ctx context.Context) (Acquisition, error) {
	out, err := s.runner.Run(ctx, "wmic",
		"path", "Win32_PerfRawData_PerfOS_Processor",
		"where", "Name='_Total'",
		"get", "PercentProcessorTime,Timestamp_Sys100NS",
		"/format:csv")
	if err != nil {
		return Acquisition{}, err
	}

	rows, err := parseWmicCSV(out)
	if err != nil {
		return Acquisition{}, err
	}

	idle, err := wmicUint(rows[0], "PercentProcessorTime")
	if err != nil {
		return Acquisition{}, err
	}
	total, err := wmicUint(rows[0], "Timestamp_Sys100NS")
	if err != nil {
		return Acquisition{}, err
	}
	if total == 0 || idle > total {
		return Acquisition{}, fmt.Errorf("wmic: implausible processor counters")
	}

	return Acquisition{Counters: &Counters{
		Used:  total - idle,
		Total: total,
		At:    time.Now(),
	}}, nil
}

// wmicMemorySource reads OS-level memory totals in kilobytes.
type wmicMemorySource struct {
	runner platform.Runner
}

func (s wmicMemorySource) Metric() Metric { return Memory }
func (s wmicMemorySource) Tier() Tier     { return TierNative }

func (s wmicMemorySource) Read(ctx context.Context) (Acquisition, error) {
	out, err := s.runner.Run(ctx, "wmic",
		"OS", "get", "FreePhysicalMemory,TotalVisibleMemorySize",
		"/format:csv")
	if err != nil {
		return Acquisition{}, err
	}

	rows, err := parseWmicCSV(out)
	if err != nil {
		return Acquisition{}, err
	}

	free, err := wmicUint(rows[0], "FreePhysicalMemory")
	if err != nil {
		return Acquisition{}, err
	}
	total, err := wmicUint(rows[0], "TotalVisibleMemorySize")
	if err != nil {
		return Acquisition{}, err
	}
	if total == 0 || free > total {
		return Acquisition{}, fmt.Errorf("wmic: implausible memory totals")
	}

	return Acquisition{Percent: float64(total-free) / float64(total) * 100}, nil
}

// wmicDiskSource sums usage across fixed drives (DriveType=3 excludes
// removable media and network mounts).
type wmicDiskSource struct {
	runner platform.Runner
}

func (s wmicDiskSource) Metric() Metric { return Disk }
func (s wmicDiskSource) Tier() Tier     { return TierNative }

func (s wmicDiskSource) Read(ctx context.Context) (Acquisition, error) {
	out, err := s.runner.Run(ctx, "wmic",
		"logicaldisk", "where", "DriveType=3",
		"get", "FreeSpace,Size",
		"/format:csv")
	if err != nil {
		return Acquisition{}, err
	}

	rows, err := parseWmicCSV(out)
	if err != nil {
		return Acquisition{}, err
	}

	var free, size uint64
	for _, row := range rows {
		f, err1 := wmicUint(row, "FreeSpace")
		s, err2 := wmicUint(row, "Size")
		if err1 != nil || err2 != nil {
			continue
		}
		free += f
		size += s
	}
	if size == 0 || free > size {
		return Acquisition{}, fmt.Errorf("wmic: implausible disk totals")
	}

	return Acquisition{Percent: float64(size-free) / float64(size) * 100}, nil
}

// wmicNetworkSource sums interface byte counters. Despite the PerSec
// suffix, raw class values are cumulative byte counts.
type wmicNetworkSource struct {
	runner platform.Runner
}

func (s wmicNetworkSource) Metric() Metric { return Network }
func (s wmicNetworkSource) Tier() Tier     { return TierNative }

func (s wmicNetworkSource) Read(ctx context.Context) (Acquisition, error) {
	out, err := s.runner.Run(ctx, "wmic",
		"path", "Win32_PerfRawData_Tcpip_NetworkInterface",
		"get", "BytesReceivedPersec,BytesSentPersec",
		"/format:csv")
	if err != nil {
		return Acquisition{}, err
	}

	rows, err := parseWmicCSV(out)
	if err != nil {
		return Acquisition{}, err
	}

	var totalBytes uint64
	var parsed int
	for _, row := range rows {
		rx, err1 := wmicUint(row, "BytesReceivedPersec")
		tx, err2 := wmicUint(row, "BytesSentPersec")
		if err1 != nil || err2 != nil {
			continue
		}
		totalBytes += rx + tx
		parsed++
	}
	if parsed == 0 {
		return Acquisition{}, fmt.Errorf("wmic: no interface counters parsed")
	}

	return Acquisition{Counters: &Counters{
		Used: totalBytes,
		At:   time.Now(),
	}}, nil
}
