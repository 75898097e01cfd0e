// Package alerting classifies metric samples against severity
// thresholds and keeps a bounded in-memory log of the alerts raised.
//
// Evaluation is stateless: every collection cycle in which a metric
// sits at or above a threshold produces a fresh alert. De-duplication
// and suppression are left to consumers.
package alerting

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// Severity ranks how far a metric has breached its thresholds.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert records a single threshold breach. Alerts are immutable once
// created.
type Alert struct {
	ID        uuid.UUID         `json:"id"`
	Metric    sysmetrics.Metric `json:"metric"`
	Severity  Severity          `json:"severity"`
	Value     float64           `json:"value"`
	Threshold float64           `json:"threshold"`
	Timestamp time.Time         `json:"timestamp"`
}

// Threshold holds the warning and critical boundaries for one metric,
// both inclusive.
type Threshold struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

func (t Threshold) validate() error {
	if t.Warning <= 0 || t.Warning > 100 {
		return fmt.Errorf("warning threshold %.1f outside (0,100]", t.Warning)
	}
	if t.Critical < t.Warning || t.Critical > 100 {
		return fmt.Errorf("critical threshold %.1f must be between warning and 100", t.Critical)
	}
	return nil
}

// defaultThresholds is the built-in per-metric severity table.
var defaultThresholds = map[sysmetrics.Metric]Threshold{
	sysmetrics.CPU:     {Warning: 70, Critical: 85},
	sysmetrics.Memory:  {Warning: 75, Critical: 90},
	sysmetrics.Disk:    {Warning: 80, Critical: 95},
	sysmetrics.Network: {Warning: 75, Critical: 90},
}

// DefaultThresholds returns a copy of the built-in severity table.
func DefaultThresholds() map[sysmetrics.Metric]Threshold {
	out := make(map[sysmetrics.Metric]Threshold, len(defaultThresholds))
	for m, t := range defaultThresholds {
		out[m] = t
	}
	return out
}

// ThresholdFor returns the built-in severity boundaries for a metric.
func ThresholdFor(m sysmetrics.Metric) (Threshold, bool) {
	t, ok := defaultThresholds[m]
	return t, ok
}

// Evaluator classifies samples against a severity table.
type Evaluator struct {
	table map[sysmetrics.Metric]Threshold
}

// NewEvaluator builds an evaluator from the built-in table with the
// given overrides applied. Overridden boundaries must satisfy
// 0 < warning <= critical <= 100.
func NewEvaluator(overrides map[sysmetrics.Metric]Threshold) (*Evaluator, error) {
	table := DefaultThresholds()
	for m, t := range overrides {
		if _, ok := table[m]; !ok {
			return nil, fmt.Errorf("alerting: unknown metric %q", m)
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("alerting: %s: %w", m, err)
		}
		table[m] = t
	}
	return &Evaluator{table: table}, nil
}

// Thresholds returns a copy of this evaluator's severity table.
func (e *Evaluator) Thresholds() map[sysmetrics.Metric]Threshold {
	out := make(map[sysmetrics.Metric]Threshold, len(e.table))
	for m, t := range e.table {
		out[m] = t
	}
	return out
}

// Evaluate derives the alerts raised by one sample. A value at or
// above the critical boundary yields exactly one critical alert;
// otherwise a value at or above the warning boundary yields exactly
// one warning alert. At most one alert per metric per sample.
func (e *Evaluator) Evaluate(s sysmetrics.Sample) []Alert {
	var alerts []Alert
	for _, m := range sysmetrics.AllMetrics {
		limits, ok := e.table[m]
		if !ok {
			continue
		}
		value := s.Reading(m).Percent
		var severity Severity
		var boundary float64
		switch {
		case value >= limits.Critical:
			severity, boundary = SeverityCritical, limits.Critical
		case value >= limits.Warning:
			severity, boundary = SeverityWarning, limits.Warning
		default:
			continue
		}
		alerts = append(alerts, Alert{
			ID:        uuid.New(),
			Metric:    m,
			Severity:  severity,
			Value:     value,
			Threshold: boundary,
			Timestamp: s.Timestamp,
		})
	}
	return alerts
}

// Evaluate classifies s against the built-in severity table.
func Evaluate(s sysmetrics.Sample) []Alert {
	return (&Evaluator{table: defaultThresholds}).Evaluate(s)
}

// Summary counts alerts by severity.
type Summary struct {
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

// Total returns the number of alerts counted.
func (s Summary) Total() int {
	return s.Warning + s.Critical
}

// Summarize tallies alerts by severity.
func Summarize(alerts []Alert) Summary {
	var s Summary
	for _, a := range alerts {
		switch a.Severity {
		case SeverityWarning:
			s.Warning++
		case SeverityCritical:
			s.Critical++
		}
	}
	return s
}
