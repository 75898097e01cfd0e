// Package scheduler drives periodic metric collection and arbitrates
// concurrent refresh requests.
//
// At most one collection pass is in flight at any time. A refresh
// request arriving while a pass is running does not start a second
// pass; it joins the in-flight one and receives its resulting sample.
// An in-flight pass cannot be cancelled by a waiter giving up, only
// by stopping the scheduler.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/logger"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// State reports whether a collection pass is currently running.
type State int32

const (
	StateIdle State = iota
	StateCollecting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	default:
		return "unknown"
	}
}

// CollectFunc runs one full collection pass and returns the sample it
// produced. It must not fail; acquisition errors degrade the sample
// instead of surfacing here.
type CollectFunc func(ctx context.Context) sysmetrics.Sample

// Scheduler runs a CollectFunc on a fixed interval and exposes
// Refresh for callers that cannot wait for the next tick.
type Scheduler struct {
	interval time.Duration
	collect  CollectFunc

	group singleflight.Group
	state atomic.Int32

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler that invokes collect every interval once
// started. A non-positive interval falls back to the default.
func New(collect CollectFunc, interval time.Duration) (*Scheduler, error) {
	if collect == nil {
		return nil, errors.New("scheduler: collect function is required")
	}
	if interval <= 0 {
		interval = constants.DefaultCollectionInterval
	}
	return &Scheduler{
		interval: interval,
		collect:  collect,
	}, nil
}

// Interval returns the periodic collection interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start launches the periodic collection loop. Calling Start more
// than once has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()

	logger.Info("Refresh scheduler started", "interval", s.interval)
}

// Stop halts the periodic loop, cancels the lifetime context any
// in-flight pass runs under, and waits for the loop and any pass it
// started to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	logger.Info("Refresh scheduler stopped")
}

// Refresh runs a collection pass, or joins one already in flight, and
// returns the resulting sample. The pass executes under the
// scheduler's lifetime context, so a waiter abandoning its wait does
// not cancel the pass for anyone else; ctx bounds only this caller's
// wait.
func (s *Scheduler) Refresh(ctx context.Context) (sysmetrics.Sample, error) {
	ch := s.group.DoChan("collect", func() (interface{}, error) {
		return s.runPass(), nil
	})
	select {
	case res := <-ch:
		sample, ok := res.Val.(sysmetrics.Sample)
		if !ok {
			return sysmetrics.Sample{}, errors.New("scheduler: unexpected collection result type")
		}
		return sample, nil
	case <-ctx.Done():
		return sysmetrics.Sample{}, ctx.Err()
	}
}

// run is the periodic loop. Ticks join any in-flight manual refresh
// instead of starting a second pass, and the loop never abandons a
// pass it started: shutdown waits the pass out so Stop returning
// means no pass is still running.
func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			ch := s.group.DoChan("collect", func() (interface{}, error) {
				return s.runPass(), nil
			})
			select {
			case <-ch:
			case <-s.ctx.Done():
				logger.Debug("Waiting for in-flight collection pass before shutdown")
				<-ch
				return
			}
		}
	}
}

// runPass executes one collection pass, flipping the observable state
// for its duration.
func (s *Scheduler) runPass() sysmetrics.Sample {
	s.state.Store(int32(StateCollecting))
	defer s.state.Store(int32(StateIdle))
	return s.collect(s.passContext())
}

// passContext returns the scheduler lifetime context, or Background
// when Refresh is used without Start.
func (s *Scheduler) passContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}
