package cmdutil

import (
	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
	"github.com/spf13/viper"
)

// ThresholdOverrides reads per-metric alert thresholds from viper.
// Keys follow the pattern thresholds.<metric>.warning and
// thresholds.<metric>.critical. Metrics without any override keep
// their built-in defaults; returns nil when no threshold key is set.
// Values are not validated here, the engine rejects bad bounds.
func ThresholdOverrides() map[sysmetrics.Metric]alerting.Threshold {
	var overrides map[sysmetrics.Metric]alerting.Threshold

	for _, m := range sysmetrics.AllMetrics {
		warnKey := "thresholds." + string(m) + ".warning"
		critKey := "thresholds." + string(m) + ".critical"
		if !viper.IsSet(warnKey) && !viper.IsSet(critKey) {
			continue
		}

		t, _ := alerting.ThresholdFor(m)
		if viper.IsSet(warnKey) {
			t.Warning = viper.GetFloat64(warnKey)
		}
		if viper.IsSet(critKey) {
			t.Critical = viper.GetFloat64(critKey)
		}

		if overrides == nil {
			overrides = make(map[sysmetrics.Metric]alerting.Threshold)
		}
		overrides[m] = t
	}

	return overrides
}
