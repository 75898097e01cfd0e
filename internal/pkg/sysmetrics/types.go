// Package sysmetrics collects host-level resource metrics through
// tiered acquisition: a platform-native source first, a portable
// fallback second, and a simulated floor so a collection cycle always
// yields a usable value for every metric.
package sysmetrics

import (
	"time"
)

// Metric identifies one of the four tracked resources.
type Metric string

const (
	CPU     Metric = "cpu"
	Memory  Metric = "memory"
	Disk    Metric = "disk"
	Network Metric = "network"
)

// AllMetrics lists the tracked metrics in presentation order.
var AllMetrics = []Metric{CPU, Memory, Disk, Network}

// Tier identifies which acquisition strategy produced a reading.
// Consumers use it to flag degraded accuracy, never to reject a value.
type Tier string

const (
	// TierNative is the OS-specific high-accuracy source
	TierNative Tier = "native"

	// TierPortable is the generic runtime estimator, used when the
	// native source fails, times out or returns unparseable output
	TierPortable Tier = "portable"

	// TierSimulated is a bounded pseudo-random value, used only when
	// both real tiers failed
	TierSimulated Tier = "simulated"
)

// Reading is one metric's value within a sample.
type Reading struct {
	// Percent is the utilization in [0,100]
	Percent float64 `json:"percent"`

	// Tier records which acquisition strategy produced the value
	Tier Tier `json:"tier"`
}

// Sample is one timestamped snapshot of all four resource metrics.
// Samples are created once per collection cycle and never mutated.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	CPU       Reading   `json:"cpu"`
	Memory    Reading   `json:"memory"`
	Disk      Reading   `json:"disk"`
	Network   Reading   `json:"network"`
}

// Reading returns the value for metric m.
func (s Sample) Reading(m Metric) Reading {
	switch m {
	case CPU:
		return s.CPU
	case Memory:
		return s.Memory
	case Disk:
		return s.Disk
	case Network:
		return s.Network
	default:
		return Reading{}
	}
}

// setReading stores r under metric m while the sample is being built.
func (s *Sample) setReading(m Metric, r Reading) {
	switch m {
	case CPU:
		s.CPU = r
	case Memory:
		s.Memory = r
	case Disk:
		s.Disk = r
	case Network:
		s.Network = r
	}
}

// Counters is one cumulative counter reading. For CPU, Used counts
// busy ticks and Total counts all ticks. For network, Used counts
// bytes moved in both directions and Total is unused.
type Counters struct {
	Used  uint64
	Total uint64

	// At is when the reading was taken; rate computation divides by
	// the spacing between two readings.
	At time.Time
}

// RawCounters is the pair of counter readings carried between cycles
// for the two rate-based metrics. The aggregator swaps the whole pair
// atomically so readers never observe one updated half.
type RawCounters struct {
	CPU Counters
	Net Counters
}
