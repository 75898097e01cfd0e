package sysmetrics

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// procfs sources implement the native tier on Linux by reading the
// kernel's pseudo-filesystem. The root is parameterized so tests can
// point sources at fixture trees instead of a live /proc.

// procfsCPUSource reads cumulative CPU ticks from the stat file.
// Format of the first line:
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
//
// Busy ticks are everything except idle and iowait. Guest ticks are
// already included in user/nice and must not be counted twice.
type procfsCPUSource struct {
	root string
}

func (s procfsCPUSource) Metric() Metric { return CPU }
func (s procfsCPUSource) Tier() Tier     { return TierNative }

func (s procfsCPUSource) Read(_ context.Context) (Acquisition, error) {
	f, err := os.Open(filepath.Join(s.root, "stat"))
	if err != nil {
		return Acquisition{}, fmt.Errorf("open stat: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return Acquisition{}, fmt.Errorf("stat: empty file")
	}

	fields := strings.Fields(scanner.Text())
	if len(fields) < 8 || fields[0] != "cpu" {
		return Acquisition{}, fmt.Errorf("stat: unexpected first line")
	}

	// user nice system idle iowait irq softirq steal
	var ticks [8]uint64
	for i := range ticks {
		v, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return Acquisition{}, fmt.Errorf("stat: field %d: %w", i+1, err)
		}
		ticks[i] = v
	}

	idle := ticks[3] + ticks[4]
	busy := ticks[0] + ticks[1] + ticks[2] + ticks[5] + ticks[6] + ticks[7]

	return Acquisition{Counters: &Counters{
		Used:  busy,
		Total: busy + idle,
		At:    time.Now(),
	}}, nil
}

// procfsMemorySource derives memory utilization from the meminfo
// file's MemTotal and MemAvailable lines. MemAvailable is the
// kernel's own estimate of reclaimable memory, so used is
// total minus available rather than total minus free.
type procfsMemorySource struct {
	root string
}

func (s procfsMemorySource) Metric() Metric { return Memory }
func (s procfsMemorySource) Tier() Tier     { return TierNative }

func (s procfsMemorySource) Read(_ context.Context) (Acquisition, error) {
	f, err := os.Open(filepath.Join(s.root, "meminfo"))
	if err != nil {
		return Acquisition{}, fmt.Errorf("open meminfo: %w", err)
	}
	defer f.Close()

	var total, available uint64
	var haveTotal, haveAvailable bool

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			total, haveTotal = parseMeminfoKB(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			available, haveAvailable = parseMeminfoKB(line)
		}
		if haveTotal && haveAvailable {
			break
		}
	}

	if !haveTotal || !haveAvailable || total == 0 {
		return Acquisition{}, fmt.Errorf("meminfo: missing MemTotal or MemAvailable")
	}
	if available > total {
		available = total
	}

	used := total - available
	return Acquisition{Percent: float64(used) / float64(total) * 100}, nil
}

// parseMeminfoKB extracts the numeric kB value from a meminfo line
// like "MemTotal:       16384000 kB".
func parseMeminfoKB(line string) (uint64, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// procfsNetworkSource sums cumulative receive and transmit bytes
// across interfaces from the net/dev file, skipping loopback. Format
// after two header lines:
//
//	iface: rx_bytes rx_packets ... (8 rx fields) tx_bytes tx_packets ...
type procfsNetworkSource struct {
	root string
}

func (s procfsNetworkSource) Metric() Metric { return Network }
func (s procfsNetworkSource) Tier() Tier     { return TierNative }

func (s procfsNetworkSource) Read(_ context.Context) (Acquisition, error) {
	f, err := os.Open(filepath.Join(s.root, "net", "dev"))
	if err != nil {
		return Acquisition{}, fmt.Errorf("open net/dev: %w", err)
	}
	defer f.Close()

	var totalBytes uint64
	var parsed int

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		name, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		iface := strings.TrimSpace(name)
		if iface == "lo" {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < 9 {
			continue
		}
		rx, err1 := strconv.ParseUint(fields[0], 10, 64)
		tx, err2 := strconv.ParseUint(fields[8], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		totalBytes += rx + tx
		parsed++
	}

	if parsed == 0 {
		return Acquisition{}, fmt.Errorf("net/dev: no interfaces parsed")
	}

	return Acquisition{Counters: &Counters{
		Used: totalBytes,
		At:   time.Now(),
	}}, nil
}
