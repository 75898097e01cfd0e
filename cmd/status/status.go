package status

import (
	"context"
	"fmt"
	"time"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/cmdutil"
	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/logger"
	engine "github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/endorses/watchcat/internal/pkg/output"
	"github.com/endorses/watchcat/internal/pkg/platform"
	"github.com/endorses/watchcat/internal/pkg/statusclient"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
	"github.com/spf13/cobra"
)

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Collect one sample and print it",
	Long: `Collect a single metrics sample, evaluate alert thresholds, and
print the result. With --remote, query a running monitor daemon
instead of collecting locally.

Examples:
  # Human-readable report
  watchcat status

  # Machine-readable output for scripts
  watchcat status --json

  # Latest sample from a daemon
  watchcat status --remote 127.0.0.1:8787`,
	RunE: runStatus,
}

var (
	jsonOutput   bool
	remoteAddr   string
	probeTimeout time.Duration
	diskPath     string
	linkCapacity float64
	simulateOnly bool
)

// statusTimeout bounds the whole collect-and-print run.
const statusTimeout = 30 * time.Second

// report is the document the command prints.
type report struct {
	Platform platform.Info     `json:"platform"`
	Sample   sysmetrics.Sample `json:"sample"`
	Alerts   []alerting.Alert  `json:"alerts"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Collection logs would interleave with the report
	logger.Disable()
	defer logger.Enable()

	if addr := cmdutil.GetStringConfig("monitor.remote", remoteAddr); addr != "" {
		return runRemoteStatus(cmd, addr)
	}

	config := engine.Config{
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

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor engine: %w", err)
	}
	defer mon.Stop()

	status, err := mon.Realtime(ctx, true)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	rep := report{
		Platform: mon.Platform(),
		Sample:   status.Sample,
		Alerts:   status.Alerts,
	}

	return printReport(cmd, rep, mon.Thresholds())
}

func runRemoteStatus(cmd *cobra.Command, addr string) error {
	client, err := statusclient.NewStatusClient(statusclient.ClientConfig{Address: addr})
	if err != nil {
		return fmt.Errorf("failed to create status client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	status, err := client.Realtime(ctx, false)
	if err != nil {
		return err
	}
	info, err := client.Platform(ctx)
	if err != nil {
		return err
	}

	// Severity coloring uses the local threshold table; the daemon may
	// run different overrides.
	evaluator, err := alerting.NewEvaluator(cmdutil.ThresholdOverrides())
	if err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}

	rep := report{Platform: info, Sample: status.Sample, Alerts: status.Alerts}
	return printReport(cmd, rep, evaluator.Thresholds())
}

func printReport(cmd *cobra.Command, rep report, thresholds map[sysmetrics.Metric]alerting.Threshold) error {
	if rep.Alerts == nil {
		rep.Alerts = []alerting.Alert{}
	}

	if jsonOutput {
		if err := output.WriteJSON(cmd.OutOrStdout(), rep); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), renderReport(rep, thresholds))
	return nil
}

func init() {
	StatusCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	StatusCmd.Flags().StringVar(&remoteAddr, "remote", "", "query a running daemon at host:port instead of collecting locally")
	StatusCmd.Flags().DurationVar(&probeTimeout, "probe-timeout", constants.ProbeTimeout, "per-tier probe timeout")
	StatusCmd.Flags().StringVar(&diskPath, "disk-path", "", "filesystem path for disk usage (default: platform root)")
	StatusCmd.Flags().Float64Var(&linkCapacity, "link-capacity-mbps", constants.DefaultLinkCapacityMbps, "link capacity in Mbit/s for network utilization")
	StatusCmd.Flags().BoolVar(&simulateOnly, "simulate", false, "serve simulated metrics without probing the host")
}
