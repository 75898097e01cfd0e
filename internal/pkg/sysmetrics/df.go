package sysmetrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/endorses/watchcat/internal/pkg/platform"
)

// dfDiskSource implements the native disk tier on Unix families by
// querying filesystem usage through POSIX df. The -P flag pins the
// single-line output format, -k pins 1024-byte block units.
type dfDiskSource struct {
	runner platform.Runner
	path   string
}

func (s dfDiskSource) Metric() Metric { return Disk }
func (s dfDiskSource) Tier() Tier     { return TierNative }

func (s dfDiskSource) Read(ctx context.Context) (Acquisition, error) {
	out, err := s.runner.Run(ctx, "df", "-P", "-k", s.path)
	if err != nil {
		return Acquisition{}, err
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 {
		return Acquisition{}, fmt.Errorf("df: missing data line")
	}

	// Filesystem 1024-blocks Used Available Capacity Mounted-on
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 6 {
		return Acquisition{}, fmt.Errorf("df: unexpected column count %d", len(fields))
	}

	used, err1 := strconv.ParseUint(fields[2], 10, 64)
	avail, err2 := strconv.ParseUint(fields[3], 10, 64)
	if err1 != nil || err2 != nil {
		return Acquisition{}, fmt.Errorf("df: unparseable block counts")
	}
	if used+avail == 0 {
		return Acquisition{}, fmt.Errorf("df: zero-size filesystem")
	}

	return Acquisition{Percent: float64(used) / float64(used+avail) * 100}, nil
}
