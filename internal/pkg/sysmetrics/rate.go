package sysmetrics

import "math"

// clampPercent bounds v to [0,100]. Deltas can briefly exceed 100%
// due to timing skew between counter reads.
func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// validPercent reports whether v is a usable utilization value.
// NaN and infinities count as a failed acquisition, out-of-range
// finite values are acceptable because they get clamped.
func validPercent(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CounterRatePercent computes utilization from two cumulative counter
// readings as (ΔUsed / ΔTotal) × 100, clamped to [0,100].
//
// It returns 0 without fabricating a delta when there is no previous
// reading (first cycle), when either counter regressed (counter reset
// after reboot or service restart), or when no total time elapsed
// between readings. The caller re-baselines by storing cur either way.
func CounterRatePercent(prev, cur Counters) float64 {
	if prev.At.IsZero() {
		return 0
	}
	if cur.Used < prev.Used || cur.Total < prev.Total {
		return 0
	}
	dTotal := cur.Total - prev.Total
	if dTotal == 0 {
		return 0
	}
	dUsed := cur.Used - prev.Used
	return clampPercent(float64(dUsed) / float64(dTotal) * 100)
}

// ThroughputPercent computes network utilization from two cumulative
// byte counter readings, normalized against the configured link
// capacity in megabits per second, clamped to [0,100].
//
// Like CounterRatePercent it returns 0 on the first cycle, on counter
// regression, and when no wall time elapsed between readings.
func ThroughputPercent(prev, cur Counters, capacityMbps float64) float64 {
	if prev.At.IsZero() || capacityMbps <= 0 {
		return 0
	}
	if cur.Used < prev.Used {
		return 0
	}
	elapsed := cur.At.Sub(prev.At).Seconds()
	if elapsed <= 0 {
		return 0
	}
	bytesPerSec := float64(cur.Used-prev.Used) / elapsed
	capacityBytesPerSec := capacityMbps * 1e6 / 8
	return clampPercent(bytesPerSec / capacityBytesPerSec * 100)
}
