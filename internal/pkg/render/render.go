// Package render holds the terminal presentation helpers shared by
// the status and top commands: the color palette, utilization bars,
// tier tags, and sparklines.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// Color palette.
var (
	White = lipgloss.Color("#E2E2E2")
	Gray  = lipgloss.Color("#888888")
	Muted = lipgloss.Color("#555555")

	Green  = lipgloss.Color("#5FD787")
	Yellow = lipgloss.Color("#FFD787")
	Red    = lipgloss.Color("#FF8787")
	Blue   = lipgloss.Color("#5FAFFF")
)

var (
	// Title is the main header text style.
	Title = lipgloss.NewStyle().Bold(true).Foreground(White)

	// Label is used for section headings.
	Label = lipgloss.NewStyle().Bold(true).Foreground(Gray)

	// MutedText is for hints and less important info.
	MutedText = lipgloss.NewStyle().Foreground(Muted)

	healthyStyle  = lipgloss.NewStyle().Foreground(Green)
	warningStyle  = lipgloss.NewStyle().Foreground(Yellow)
	criticalStyle = lipgloss.NewStyle().Foreground(Red)
)

// chartHeight is the fixed height for sparklines.
const chartHeight = 5

// SeverityStyle returns the style for a utilization value measured
// against t: red at or above critical, yellow at or above warning,
// green otherwise.
func SeverityStyle(value float64, t alerting.Threshold) lipgloss.Style {
	switch {
	case value >= t.Critical:
		return criticalStyle
	case value >= t.Warning:
		return warningStyle
	default:
		return healthyStyle
	}
}

// Bar renders a utilization bar with the percent value, colored by how
// value compares to t.
func Bar(value float64, width int, t alerting.Threshold) string {
	fill := barFill(value, width)
	bar := strings.Repeat("█", fill) + strings.Repeat("░", width-fill)
	return fmt.Sprintf("[%s] %5.1f%%", SeverityStyle(value, t).Render(bar), value)
}

// barFill maps a percentage to a cell count, clamping to [0,width].
func barFill(percent float64, width int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	fill := int(percent/100*float64(width) + 0.5)
	if fill > width {
		fill = width
	}
	return fill
}

// TierTag annotates a reading with its acquisition tier. Native reads
// render empty; degraded tiers are called out so the viewer knows the
// value is an estimate.
func TierTag(tier sysmetrics.Tier) string {
	switch tier {
	case sysmetrics.TierPortable:
		return MutedText.Render("(portable)")
	case sysmetrics.TierSimulated:
		return warningStyle.Render("(simulated)")
	default:
		return ""
	}
}

// AlertLine renders one alert for a feed or report.
func AlertLine(a alerting.Alert) string {
	style := warningStyle
	if a.Severity == alerting.SeverityCritical {
		style = criticalStyle
	}
	return fmt.Sprintf("%s %s %.1f%% at %s (threshold %.1f%%)",
		style.Render(string(a.Severity)),
		a.Metric,
		a.Value,
		a.Timestamp.Format("15:04:05"),
		a.Threshold,
	)
}

// MetricLabel returns the display name for a metric.
func MetricLabel(m sysmetrics.Metric) string {
	switch m {
	case sysmetrics.CPU:
		return "CPU"
	case sysmetrics.Memory:
		return "Memory"
	case sysmetrics.Disk:
		return "Disk"
	case sysmetrics.Network:
		return "Network"
	default:
		return string(m)
	}
}

// Sparkline plots data as a fixed-height chart. Returns a muted
// placeholder when data is empty.
func Sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return MutedText.Render("no data")
	}

	// Reserve space for Y-axis labels (number + " ┤" ≈ 9 chars).
	plotWidth := width - 9
	if plotWidth < 10 {
		plotWidth = 10
	}

	return asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.DodgerBlue),
		asciigraph.LabelColor(asciigraph.Default),
	)
}
