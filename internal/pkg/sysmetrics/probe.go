package sysmetrics

import (
	"context"
	"time"

	"github.com/endorses/watchcat/internal/pkg/logger"
)

// Probe walks one metric's acquisition tiers in order until a source
// succeeds. Every failure mode within a tier (spawn error, non-zero
// exit, timeout, parse error, non-finite value) is swallowed and
// triggers the next tier.
type Probe struct {
	metric  Metric
	sources []Source
	timeout time.Duration
}

func newProbe(metric Metric, timeout time.Duration, sources ...Source) *Probe {
	return &Probe{
		metric:  metric,
		sources: sources,
		timeout: timeout,
	}
}

// Acquire returns one acquisition and the tier that produced it.
// Probes built by the aggregator end in a simulated source, so a
// usable value always comes back; the zero return is only reachable
// for probes assembled without one.
func (p *Probe) Acquire(ctx context.Context) (Acquisition, Tier) {
	for _, src := range p.sources {
		tierCtx, cancel := context.WithTimeout(ctx, p.timeout)
		acq, err := src.Read(tierCtx)
		cancel()

		if err != nil {
			logger.Debug("Acquisition tier failed",
				"metric", p.metric,
				"tier", src.Tier(),
				"error", err,
			)
			continue
		}
		if acq.Counters == nil && !validPercent(acq.Percent) {
			logger.Debug("Acquisition tier returned non-finite value",
				"metric", p.metric,
				"tier", src.Tier(),
			)
			continue
		}
		return acq, src.Tier()
	}
	return Acquisition{}, TierSimulated
}
