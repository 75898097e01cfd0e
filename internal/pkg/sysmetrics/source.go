package sysmetrics

import (
	"context"
	"math/rand/v2"
)

// Acquisition is the result of one source read. Gauge sources set
// Percent directly. Counter sources set Counters instead and leave
// rate computation to the aggregator, which holds the previous
// cycle's reading.
type Acquisition struct {
	Percent  float64
	Counters *Counters
}

// Source is one acquisition strategy for one metric. A probe tries
// its sources in tier order until one succeeds.
type Source interface {
	// Metric this source feeds
	Metric() Metric

	// Tier identifies the acquisition strategy
	Tier() Tier

	// Read acquires one value. The context carries the per-tier
	// deadline; implementations that spawn commands must respect it.
	Read(ctx context.Context) (Acquisition, error)
}

// simulatedRanges bounds the pseudo-random values per metric so a
// degraded display still shows plausible numbers.
var simulatedRanges = map[Metric][2]float64{
	CPU:     {5, 65},
	Memory:  {30, 80},
	Disk:    {20, 70},
	Network: {1, 40},
}

// simulatedSource is the terminal tier. It cannot fail, which is what
// guarantees every collection cycle produces four values.
type simulatedSource struct {
	metric Metric
}

func (s simulatedSource) Metric() Metric { return s.metric }
func (s simulatedSource) Tier() Tier     { return TierSimulated }

// Read ignores the context so that an already-expired cycle deadline
// still yields a value.
func (s simulatedSource) Read(_ context.Context) (Acquisition, error) {
	r := simulatedRanges[s.metric]
	return Acquisition{Percent: r[0] + rand.Float64()*(r[1]-r[0])}, nil
}
