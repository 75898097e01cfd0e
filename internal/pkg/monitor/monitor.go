// Package monitor wires the metric aggregator, threshold evaluator,
// history store, and refresh scheduler into one engine exposed to the
// CLI, API, and TUI layers.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/history"
	"github.com/endorses/watchcat/internal/pkg/platform"
	"github.com/endorses/watchcat/internal/pkg/scheduler"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// ErrNotRunning is returned by collection operations when the engine
// has not been started or has been stopped.
var ErrNotRunning = errors.New("monitor: engine not running")

// Status is the result of one completed collection cycle: the sample
// and the alerts it raised.
type Status struct {
	Sample sysmetrics.Sample `json:"sample"`
	Alerts []alerting.Alert  `json:"alerts"`
}

// Config controls the engine. The zero value is usable and collects
// every 30s with built-in thresholds and no durable archive.
type Config struct {
	// Interval is the periodic collection interval. Defaults to 30s
	// and may not be below 5s.
	Interval time.Duration
	// Retention bounds both the in-memory history window and archive
	// pruning. Defaults to 24h.
	Retention time.Duration
	// ProbeTimeout bounds each acquisition tier attempt.
	ProbeTimeout time.Duration
	// DiskPath is the mount point measured by the disk probe.
	DiskPath string
	// LinkCapacityMbps is the assumed network link capacity used to
	// normalize throughput into a percentage.
	LinkCapacityMbps float64
	// SimulateOnly skips the native and portable tiers. Intended for
	// demos and tests.
	SimulateOnly bool
	// ArchivePath is the SQLite file for durable history. Empty
	// disables the archive.
	ArchivePath string
	// Thresholds overrides the built-in severity table per metric.
	Thresholds map[sysmetrics.Metric]alerting.Threshold
	// AlertLogCapacity bounds the recent-alert ring. Zero uses the
	// default.
	AlertLogCapacity int
}

// Engine owns the collection pipeline. Create with New, then Start;
// a stopped engine cannot be restarted.
type Engine struct {
	cfg       Config
	evaluator *alerting.Evaluator
	alertLog  *alerting.Log
	store     *history.Store
	sched     *scheduler.Scheduler

	// Set during Start.
	agg     *sysmetrics.Aggregator
	archive *history.Archive
	info    platform.Info

	mu          sync.RWMutex
	running     bool
	stopped     bool
	latest      Status
	hasLatest   bool
	subscribers map[int]chan Status
	nextSubID   int

	cancel func()
	wg     sync.WaitGroup
}

// New validates cfg and builds an engine. No I/O happens until Start.
func New(cfg Config) (*Engine, error) {
	if cfg.Interval == 0 {
		cfg.Interval = constants.DefaultCollectionInterval
	}
	if cfg.Interval < constants.MinCollectionInterval {
		return nil, fmt.Errorf("monitor: collection interval %s below minimum %s",
			cfg.Interval, constants.MinCollectionInterval)
	}
	if cfg.Retention <= 0 {
		cfg.Retention = constants.HistoryRetention
	}

	evaluator, err := alerting.NewEvaluator(cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	e := &Engine{
		cfg:         cfg,
		evaluator:   evaluator,
		alertLog:    alerting.NewLog(cfg.AlertLogCapacity),
		store:       history.NewStore(cfg.Retention),
		subscribers: make(map[int]chan Status),
	}
	sched, err := scheduler.New(e.runCycle, cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	e.sched = sched
	return e, nil
}

// TriggerRefresh forces a collection pass, or joins one already in
// flight, and returns the resulting sample. Acquisition problems
// never surface here; the only errors are caller cancellation and a
// stopped engine.
func (e *Engine) TriggerRefresh(ctx context.Context) (sysmetrics.Sample, error) {
	if !e.isRunning() {
		return sysmetrics.Sample{}, ErrNotRunning
	}
	return e.sched.Refresh(ctx)
}

// Realtime returns the most recent cycle's status. With refresh set,
// or before the first cycle has completed, it forces a collection
// pass first.
func (e *Engine) Realtime(ctx context.Context, refresh bool) (Status, error) {
	if !e.isRunning() {
		return Status{}, ErrNotRunning
	}
	if refresh || !e.hasLatestStatus() {
		if _, err := e.sched.Refresh(ctx); err != nil {
			return Status{}, err
		}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest, nil
}

// Platform returns the platform description detected at Start.
func (e *Engine) Platform() platform.Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.info
}

// History returns the retained samples no older than window, in
// timestamp order. The sequence iterates a point-in-time snapshot.
func (e *Engine) History(window time.Duration) iter.Seq[sysmetrics.Sample] {
	return e.store.Query(window)
}

// Alerts returns up to n recent alerts, newest first. Non-positive n
// returns the full log.
func (e *Engine) Alerts(n int) []alerting.Alert {
	return e.alertLog.Recent(n)
}

// Scheduler reports the collection interval and current scheduler
// state, for status surfaces.
func (e *Engine) Scheduler() (time.Duration, scheduler.State) {
	return e.sched.Interval(), e.sched.State()
}

// Thresholds returns the alert threshold table the engine evaluates
// samples against, including any configured overrides.
func (e *Engine) Thresholds() map[sysmetrics.Metric]alerting.Threshold {
	return e.evaluator.Thresholds()
}

// Subscribe registers a listener that receives the Status of every
// completed cycle. A subscriber that falls behind misses cycles
// rather than blocking collection. The returned cancel function
// closes the channel.
func (e *Engine) Subscribe(buffer int) (<-chan Status, func()) {
	if buffer <= 0 {
		buffer = constants.SubscriberChannelBuffer
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	ch := make(chan Status, buffer)
	e.subscribers[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subscribers[id]; ok {
			delete(e.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (e *Engine) isRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

func (e *Engine) hasLatestStatus() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasLatest
}
