package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/render"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

const barWidth = 30

// renderReport builds the human-readable status report.
func renderReport(rep report, thresholds map[sysmetrics.Metric]alerting.Threshold) string {
	var b strings.Builder

	info := rep.Platform
	host := info.Hostname
	if host == "" {
		host = info.OS
	}

	b.WriteString(render.Title.Render("watchcat status"))
	b.WriteString("  ")
	b.WriteString(render.MutedText.Render(rep.Sample.Timestamp.Format(time.RFC3339)))
	b.WriteString("\n")
	b.WriteString(render.MutedText.Render(fmt.Sprintf("%s | %s/%s | %d CPUs", host, info.OS, info.Architecture, info.CPUCount)))
	b.WriteString("\n\n")

	for _, m := range sysmetrics.AllMetrics {
		r := rep.Sample.Reading(m)
		line := fmt.Sprintf("  %-8s %s %s", render.MetricLabel(m), render.Bar(r.Percent, barWidth, thresholds[m]), render.TierTag(r.Tier))
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(rep.Alerts) > 0 {
		summary := alerting.Summarize(rep.Alerts)
		b.WriteString(render.Label.Render("Alerts"))
		b.WriteString("  ")
		b.WriteString(render.MutedText.Render(fmt.Sprintf("%d critical, %d warning", summary.Critical, summary.Warning)))
		b.WriteString("\n")
		for _, a := range rep.Alerts {
			b.WriteString("  " + render.AlertLine(a) + "\n")
		}
	} else {
		b.WriteString(render.MutedText.Render("No thresholds breached"))
		b.WriteString("\n")
	}

	return b.String()
}
