package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/history"
	"github.com/endorses/watchcat/internal/pkg/logger"
	"github.com/endorses/watchcat/internal/pkg/platform"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// Start detects the platform, opens and reloads the archive when one
// is configured, and launches the periodic collection loop. ctx bounds
// the background loops; Stop waits them out and releases resources.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("monitor: engine already started")
	}
	if e.stopped {
		e.mu.Unlock()
		return errors.New("monitor: engine cannot be restarted")
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.info = platform.Detect(runCtx)

	agg, err := sysmetrics.NewAggregator(sysmetrics.Config{
		Family:           e.info.Family,
		ProbeTimeout:     e.cfg.ProbeTimeout,
		DiskPath:         e.cfg.DiskPath,
		LinkCapacityMbps: e.cfg.LinkCapacityMbps,
		CPUCount:         e.info.CPUCount,
		SimulateOnly:     e.cfg.SimulateOnly,
	})
	if err != nil {
		cancel()
		e.mu.Unlock()
		return fmt.Errorf("monitor: %w", err)
	}
	e.agg = agg

	if e.cfg.ArchivePath != "" {
		archive, err := history.OpenArchive(e.cfg.ArchivePath)
		if err != nil {
			cancel()
			e.mu.Unlock()
			return fmt.Errorf("monitor: %w", err)
		}
		e.archive = archive
		e.reloadArchiveLocked()
	}

	e.running = true
	e.mu.Unlock()

	e.sched.Start(runCtx)
	if e.archive != nil {
		e.wg.Add(1)
		go e.pruneLoop(runCtx)
	}

	logger.Info("Monitor engine started",
		"platform", e.info.Family.String(),
		"interval", e.cfg.Interval,
		"retention", e.cfg.Retention,
		"archive", e.cfg.ArchivePath != "")
	return nil
}

// Stop halts collection, waits for background loops to exit, and
// closes the archive. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.stopped = true
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.sched.Stop()
	e.wg.Wait()

	if e.archive != nil {
		if err := e.archive.Close(); err != nil {
			logger.Warn("History archive close failed", "error", err)
		}
	}
	logger.Info("Monitor engine stopped")
}

// runCycle is the scheduler's collection pass: aggregate, evaluate,
// persist, publish. It never fails; acquisition problems degrade the
// sample's tiers instead.
func (e *Engine) runCycle(ctx context.Context) sysmetrics.Sample {
	sample := e.agg.Collect(ctx)
	alerts := e.evaluator.Evaluate(sample)

	e.store.Append(sample)
	if e.archive != nil {
		if err := e.archive.Insert(sample); err != nil {
			logger.Warn("History archive insert failed", "error", err)
		}
	}
	if len(alerts) > 0 {
		e.alertLog.Append(alerts...)
		for _, a := range alerts {
			logger.Warn("Threshold breached",
				"metric", string(a.Metric),
				"severity", string(a.Severity),
				"value", a.Value,
				"threshold", a.Threshold)
		}
	}

	status := Status{Sample: sample, Alerts: alerts}
	e.mu.Lock()
	e.latest = status
	e.hasLatest = true
	for _, ch := range e.subscribers {
		select {
		case ch <- status:
		default: // laggard misses this cycle
		}
	}
	e.mu.Unlock()

	return sample
}

// reloadArchiveLocked seeds the in-memory window from the archive.
// Caller holds e.mu. A reload failure is not fatal; the engine just
// starts with an empty window.
func (e *Engine) reloadArchiveLocked() {
	cutoff := time.Now().Add(-e.cfg.Retention)
	samples, err := e.archive.LoadSince(cutoff)
	if err != nil {
		logger.Warn("History archive reload failed", "error", err)
		return
	}
	for _, s := range samples {
		e.store.Append(s)
	}
	if len(samples) > 0 {
		e.latest = Status{Sample: samples[len(samples)-1]}
		e.hasLatest = true
		logger.Info("History archive reloaded", "samples", len(samples))
	}
}

// pruneLoop periodically trims archive rows older than the retention
// window.
func (e *Engine) pruneLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(constants.ArchivePruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := e.archive.DeleteOlderThan(e.cfg.Retention)
			if err != nil {
				logger.Warn("History archive prune failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Debug("History archive pruned", "removed", removed)
			}
		}
	}
}
