package sysmetrics

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/logger"
	"github.com/endorses/watchcat/internal/pkg/platform"
)

// Config configures an Aggregator.
type Config struct {
	// Family selects the native source set. Detected once at startup.
	Family platform.Family

	// Runner executes native commands. Defaults to the os/exec runner.
	Runner platform.Runner

	// ProcRoot overrides the pseudo-filesystem root used by Linux
	// sources. Tests point this at fixture trees. Empty means /proc.
	ProcRoot string

	// DiskPath is the filesystem whose usage feeds the disk metric.
	// Defaults to / on Unix families and C: on Windows.
	DiskPath string

	// LinkCapacityMbps normalizes network throughput into a percent.
	// Defaults to constants.DefaultLinkCapacityMbps.
	LinkCapacityMbps float64

	// ProbeTimeout bounds each acquisition tier. Defaults to
	// constants.ProbeTimeout.
	ProbeTimeout time.Duration

	// CPUCount normalizes load-average CPU estimates. Defaults to
	// runtime.NumCPU.
	CPUCount int

	// SimulateOnly skips the real tiers entirely, for demos and for
	// tests on hosts that must not be probed.
	SimulateOnly bool
}

// Aggregator produces one Sample per collection cycle by running the
// four metric probes concurrently. It owns the previous cycle's raw
// counters for the two rate-based metrics; the pair is swapped
// atomically after each cycle so concurrent readers never observe one
// updated half.
type Aggregator struct {
	probes   []*Probe
	capacity float64
	raw      atomic.Pointer[RawCounters]
}

// NewAggregator validates cfg and assembles the per-family probe set.
func NewAggregator(cfg Config) (*Aggregator, error) {
	if cfg.LinkCapacityMbps == 0 {
		cfg.LinkCapacityMbps = constants.DefaultLinkCapacityMbps
	}
	if cfg.LinkCapacityMbps < 0 {
		return nil, fmt.Errorf("link capacity must be positive, got %v", cfg.LinkCapacityMbps)
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = constants.ProbeTimeout
	}
	if cfg.ProbeTimeout < 0 {
		return nil, fmt.Errorf("probe timeout must be positive, got %v", cfg.ProbeTimeout)
	}
	if cfg.Runner == nil {
		cfg.Runner = platform.NewRunner()
	}
	if cfg.ProcRoot == "" {
		cfg.ProcRoot = "/proc"
	}
	if cfg.DiskPath == "" {
		if cfg.Family == platform.Windows {
			cfg.DiskPath = `C:\`
		} else {
			cfg.DiskPath = "/"
		}
	}
	if cfg.CPUCount <= 0 {
		cfg.CPUCount = runtime.NumCPU()
	}

	a := &Aggregator{
		probes:   buildProbes(cfg),
		capacity: cfg.LinkCapacityMbps,
	}
	a.raw.Store(&RawCounters{})
	return a, nil
}

// buildProbes assembles each metric's tier cascade: the family's
// native source when one exists, the portable source, then the
// simulated floor.
func buildProbes(cfg Config) []*Probe {
	native := nativeSources(cfg)
	portable := map[Metric]Source{
		CPU:     portableCPUSource{},
		Memory:  portableMemorySource{},
		Disk:    portableDiskSource{path: cfg.DiskPath},
		Network: portableNetworkSource{},
	}

	probes := make([]*Probe, 0, len(AllMetrics))
	for _, m := range AllMetrics {
		var sources []Source
		if !cfg.SimulateOnly {
			if src, ok := native[m]; ok {
				sources = append(sources, src)
			}
			sources = append(sources, portable[m])
		}
		sources = append(sources, simulatedSource{metric: m})
		probes = append(probes, newProbe(m, cfg.ProbeTimeout, sources...))
	}
	return probes
}

// nativeSources returns the family's native tier, keyed by metric.
// The Other family has none and relies on the portable tier.
func nativeSources(cfg Config) map[Metric]Source {
	switch cfg.Family {
	case platform.Linux:
		return map[Metric]Source{
			CPU:     procfsCPUSource{root: cfg.ProcRoot},
			Memory:  procfsMemorySource{root: cfg.ProcRoot},
			Disk:    dfDiskSource{runner: cfg.Runner, path: cfg.DiskPath},
			Network: procfsNetworkSource{root: cfg.ProcRoot},
		}
	case platform.MacOS:
		return map[Metric]Source{
			CPU:     sysctlCPUSource{runner: cfg.Runner, cpuCount: cfg.CPUCount},
			Memory:  vmStatMemorySource{runner: cfg.Runner},
			Disk:    dfDiskSource{runner: cfg.Runner, path: cfg.DiskPath},
			Network: netstatNetworkSource{runner: cfg.Runner},
		}
	case platform.Windows:
		return map[Metric]Source{
			CPU:     wmicCPUSource{runner: cfg.Runner},
			Memory:  wmicMemorySource{runner: cfg.Runner},
			Disk:    wmicDiskSource{runner: cfg.Runner},
			Network: wmicNetworkSource{runner: cfg.Runner},
		}
	default:
		return nil
	}
}

type acqResult struct {
	acq  Acquisition
	tier Tier
}

// Collect runs one collection cycle and returns the sample. It never
// fails: every probe bottoms out in a simulated source, so degraded
// accuracy is reported through per-metric tiers instead of an error.
func (a *Aggregator) Collect(ctx context.Context) Sample {
	ctx, cancel := context.WithTimeout(ctx, constants.CollectionCycleTimeout)
	defer cancel()

	results := make([]acqResult, len(a.probes))
	var wg sync.WaitGroup
	for i, p := range a.probes {
		wg.Add(1)
		go func(i int, p *Probe) {
			defer wg.Done()
			acq, tier := p.Acquire(ctx)
			results[i] = acqResult{acq: acq, tier: tier}
		}(i, p)
	}
	wg.Wait()

	prev := a.raw.Load()
	next := *prev

	sample := Sample{Timestamp: time.Now()}
	for i, p := range a.probes {
		res := results[i]
		percent := res.acq.Percent

		if c := res.acq.Counters; c != nil {
			switch p.metric {
			case CPU:
				percent = CounterRatePercent(prev.CPU, *c)
				next.CPU = *c
			case Network:
				percent = ThroughputPercent(prev.Net, *c, a.capacity)
				next.Net = *c
			default:
				logger.Warn("Counter acquisition for gauge metric ignored", "metric", p.metric)
				percent = 0
			}
		}

		sample.setReading(p.metric, Reading{
			Percent: clampPercent(percent),
			Tier:    res.tier,
		})
	}

	a.raw.Store(&next)
	return sample
}
