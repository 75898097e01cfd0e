package top

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/endorses/watchcat/internal/pkg/cmdutil"
	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/logger"
	engine "github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/spf13/cobra"
)

var TopCmd = &cobra.Command{
	Use:   "top",
	Short: "Live terminal dashboard of host metrics",
	Long: `Start watchcat with an interactive terminal dashboard.

Each collection cycle updates utilization bars for CPU, memory, disk,
and network, a CPU sparkline, and a feed of recent threshold alerts.

Examples:
  # Dashboard with the default 30s interval
  watchcat top

  # Faster refresh
  watchcat top --interval 5s`,
	RunE: runTop,
}

var (
	interval     time.Duration
	probeTimeout time.Duration
	diskPath     string
	linkCapacity float64
	simulateOnly bool
)

func runTop(cmd *cobra.Command, args []string) error {
	// Disable logging to prevent corrupting the dashboard display
	logger.Disable()
	defer logger.Enable()

	config := engine.Config{
		Interval:         cmdutil.GetDurationConfig("monitor.interval", interval),
		ProbeTimeout:     cmdutil.GetDurationConfig("monitor.probe_timeout", probeTimeout),
		DiskPath:         cmdutil.GetStringConfig("monitor.disk_path", diskPath),
		LinkCapacityMbps: cmdutil.GetFloat64Config("monitor.link_capacity_mbps", linkCapacity),
		SimulateOnly:     cmdutil.GetBoolConfig("monitor.simulate", simulateOnly),
		Thresholds:       cmdutil.ThresholdOverrides(),
	}

	mon, err := engine.New(config)
	if err != nil {
		return fmt.Errorf("failed to create monitor engine: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor engine: %w", err)
	}
	defer mon.Stop()

	updates, unsubscribe := mon.Subscribe(0)
	defer unsubscribe()

	p := tea.NewProgram(newModel(mon, updates), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}

	return nil
}

func init() {
	TopCmd.Flags().DurationVar(&interval, "interval", constants.DefaultCollectionInterval, "collection interval (minimum 5s)")
	TopCmd.Flags().DurationVar(&probeTimeout, "probe-timeout", constants.ProbeTimeout, "per-tier probe timeout")
	TopCmd.Flags().StringVar(&diskPath, "disk-path", "", "filesystem path for disk usage (default: platform root)")
	TopCmd.Flags().Float64Var(&linkCapacity, "link-capacity-mbps", constants.DefaultLinkCapacityMbps, "link capacity in Mbit/s for network utilization")
	TopCmd.Flags().BoolVar(&simulateOnly, "simulate", false, "serve simulated metrics without probing the host")
}
