package top

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	engine "github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/endorses/watchcat/internal/pkg/platform"
	"github.com/endorses/watchcat/internal/pkg/render"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
	"github.com/endorses/watchcat/internal/pkg/version"
)

const (
	// cpuHistoryLen caps the sparkline series.
	cpuHistoryLen = 120

	// alertFeedLen caps the alert feed shown below the charts.
	alertFeedLen = 5
)

// --- Messages ---

// statusMsg carries one completed collection cycle.
type statusMsg engine.Status

// streamClosedMsg is sent when the subscription channel closes.
type streamClosedMsg struct{}

// refreshErrMsg carries an error from a manual refresh.
type refreshErrMsg struct {
	err error
}

// --- Model ---

type model struct {
	mon        *engine.Engine
	updates    <-chan engine.Status
	thresholds map[sysmetrics.Metric]alerting.Threshold
	info       platform.Info

	width  int
	height int

	spinner   spinner.Model
	hasSample bool
	status    engine.Status

	cpuHistory []float64
	alerts     []alerting.Alert

	err      error
	quitting bool
}

func newModel(mon *engine.Engine, updates <-chan engine.Status) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(render.Blue)

	return model{
		mon:        mon,
		updates:    updates,
		thresholds: mon.Thresholds(),
		info:       mon.Platform(),
		spinner:    s,
	}
}

func (m model) Init() tea.Cmd {
	// Kick off a collection immediately so the first paint does not
	// wait a full interval.
	return tea.Batch(m.spinner.Tick, m.waitForStatus(), m.triggerRefresh())
}

// waitForStatus blocks on the subscription channel and converts the
// next cycle into a message. Update re-arms it after every statusMsg.
func (m model) waitForStatus() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		status, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return statusMsg(status)
	}
}

func (m model) triggerRefresh() tea.Cmd {
	mon := m.mon
	return func() tea.Msg {
		if _, err := mon.TriggerRefresh(context.Background()); err != nil {
			return refreshErrMsg{err: err}
		}
		// The cycle result arrives through the subscription.
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.triggerRefresh()
		}
		return m, nil

	case statusMsg:
		m.hasSample = true
		m.err = nil
		m.status = engine.Status(msg)

		m.cpuHistory = append(m.cpuHistory, m.status.Sample.CPU.Percent)
		if len(m.cpuHistory) > cpuHistoryLen {
			m.cpuHistory = m.cpuHistory[len(m.cpuHistory)-cpuHistoryLen:]
		}

		for _, a := range m.status.Alerts {
			m.alerts = append([]alerting.Alert{a}, m.alerts...)
		}
		if len(m.alerts) > alertFeedLen {
			m.alerts = m.alerts[:alertFeedLen]
		}

		return m, m.waitForStatus()

	case streamClosedMsg:
		return m, tea.Quit

	case refreshErrMsg:
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.hasSample {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if !m.hasSample {
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.spinner.View()+"  Collecting first sample...",
		)
	}

	header := m.renderHeader()
	footer := render.MutedText.Render("  q quit | r refresh")

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	contentH := m.height - headerH - footerH
	if contentH < 1 {
		contentH = 1
	}

	content := m.renderContent()
	if lipgloss.Height(content) < contentH {
		content += strings.Repeat("\n", contentH-lipgloss.Height(content))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m model) renderHeader() string {
	host := m.info.Hostname
	if host == "" {
		host = m.info.OS
	}
	interval, _ := m.mon.Scheduler()

	title := render.Title.Render("watchcat top")
	meta := render.MutedText.Render(fmt.Sprintf("%s | %s | %s/%s | %d CPUs | every %s",
		version.GetShortVersion(), host, m.info.OS, m.info.Architecture, m.info.CPUCount, interval))

	return lipgloss.JoinVertical(lipgloss.Left, "  "+title+"  "+meta, "")
}

func (m model) renderContent() string {
	var sections []string

	sections = append(sections, m.renderBars())
	sections = append(sections, "")
	sections = append(sections, "  "+render.Label.Render("CPU history"))
	sections = append(sections, render.Sparkline(m.cpuHistory, m.width-4))
	sections = append(sections, "")
	sections = append(sections, m.renderAlerts())

	if m.err != nil {
		sections = append(sections, "")
		sections = append(sections, "  "+render.MutedText.Render("refresh failed: "+m.err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) renderBars() string {
	barWidth := m.width - 36
	if barWidth > 50 {
		barWidth = 50
	}
	if barWidth < 10 {
		barWidth = 10
	}

	lines := make([]string, 0, len(sysmetrics.AllMetrics))
	for _, metric := range sysmetrics.AllMetrics {
		r := m.status.Sample.Reading(metric)
		line := fmt.Sprintf("  %-8s %s %s", render.MetricLabel(metric), render.Bar(r.Percent, barWidth, m.thresholds[metric]), render.TierTag(r.Tier))
		lines = append(lines, strings.TrimRight(line, " "))
	}

	return strings.Join(lines, "\n")
}

func (m model) renderAlerts() string {
	if len(m.alerts) == 0 {
		return "  " + render.MutedText.Render("No recent alerts")
	}

	lines := []string{"  " + render.Label.Render("Recent alerts")}
	for _, a := range m.alerts {
		lines = append(lines, "  "+render.AlertLine(a))
	}

	return strings.Join(lines, "\n")
}
