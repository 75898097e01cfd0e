package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/endorses/watchcat/internal/pkg/api"
	"github.com/endorses/watchcat/internal/pkg/cmdutil"
	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/logger"
	engine "github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/endorses/watchcat/internal/pkg/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var MonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the collection daemon with the HTTP API",
	Long: `Start watchcat in monitor mode.

The engine samples CPU, memory, disk, and network on a fixed interval,
evaluates alert thresholds, and keeps a sliding history window. The
JSON API serves realtime, history, platform, and alert queries plus a
websocket stream of collection cycles.

Examples:
  # Monitor with defaults (loopback API, 30s interval)
  watchcat monitor

  # Expose the API and collect every 10 seconds
  watchcat monitor --listen 0.0.0.0:8787 --interval 10s

  # Persist history across restarts
  watchcat monitor --archive ~/.local/share/watchcat/history.db`,
	RunE: runMonitor,
}

var (
	listenAddr   string
	interval     time.Duration
	retention    time.Duration
	probeTimeout time.Duration
	diskPath     string
	linkCapacity float64
	archivePath  string
	simulateOnly bool
)

func runMonitor(cmd *cobra.Command, args []string) error {
	logger.Info("Starting watchcat in monitor mode")

	config := engine.Config{
		Interval:         cmdutil.GetDurationConfig("monitor.interval", interval),
		Retention:        cmdutil.GetDurationConfig("monitor.retention", retention),
		ProbeTimeout:     cmdutil.GetDurationConfig("monitor.probe_timeout", probeTimeout),
		DiskPath:         cmdutil.GetStringConfig("monitor.disk_path", diskPath),
		LinkCapacityMbps: cmdutil.GetFloat64Config("monitor.link_capacity_mbps", linkCapacity),
		ArchivePath:      cmdutil.GetStringConfig("monitor.archive", archivePath),
		SimulateOnly:     cmdutil.GetBoolConfig("monitor.simulate", simulateOnly),
		Thresholds:       cmdutil.ThresholdOverrides(),
		AlertLogCapacity: cmdutil.GetIntConfig("monitor.alert_log_capacity", 0),
	}

	mon, err := engine.New(config)
	if err != nil {
		return fmt.Errorf("failed to create monitor engine: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup := signals.SetupHandler(ctx, cancel)
	defer cleanup()

	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor engine: %w", err)
	}
	defer mon.Stop()

	addr := cmdutil.GetStringConfig("monitor.listen_addr", listenAddr)
	if addr == "" {
		addr = constants.DefaultAPIListenAddr
	}
	server := api.NewServer(api.Config{ListenAddr: addr}, mon)

	errChan := make(chan error, constants.ErrorChannelBuffer)
	go func() {
		errChan <- server.Start(ctx)
	}()

	logger.Info("Monitor started", "listen_addr", addr)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("API server failed", "error", err)
			return err
		}
	case <-ctx.Done():
		// Signal received; wait for the API server to drain in-flight
		// requests before tearing the engine down.
		if err := <-errChan; err != nil {
			logger.Error("API server shutdown error", "error", err)
			return err
		}
	}

	logger.Info("Monitor stopped")
	return nil
}

func init() {
	MonitorCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "HTTP API listen address (default: 127.0.0.1:8787)")
	MonitorCmd.Flags().DurationVar(&interval, "interval", constants.DefaultCollectionInterval, "collection interval (minimum 5s)")
	MonitorCmd.Flags().DurationVar(&retention, "retention", constants.HistoryRetention, "history retention window")
	MonitorCmd.Flags().DurationVar(&probeTimeout, "probe-timeout", constants.ProbeTimeout, "per-tier probe timeout")
	MonitorCmd.Flags().StringVar(&diskPath, "disk-path", "", "filesystem path for disk usage (default: platform root)")
	MonitorCmd.Flags().Float64Var(&linkCapacity, "link-capacity-mbps", constants.DefaultLinkCapacityMbps, "link capacity in Mbit/s for network utilization")
	MonitorCmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive path for persistent history (empty disables)")
	MonitorCmd.Flags().BoolVar(&simulateOnly, "simulate", false, "serve simulated metrics without probing the host")

	_ = viper.BindPFlag("monitor.listen_addr", MonitorCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("monitor.interval", MonitorCmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("monitor.retention", MonitorCmd.Flags().Lookup("retention"))
	_ = viper.BindPFlag("monitor.probe_timeout", MonitorCmd.Flags().Lookup("probe-timeout"))
	_ = viper.BindPFlag("monitor.disk_path", MonitorCmd.Flags().Lookup("disk-path"))
	_ = viper.BindPFlag("monitor.link_capacity_mbps", MonitorCmd.Flags().Lookup("link-capacity-mbps"))
	_ = viper.BindPFlag("monitor.archive", MonitorCmd.Flags().Lookup("archive"))
	_ = viper.BindPFlag("monitor.simulate", MonitorCmd.Flags().Lookup("simulate"))
}
