// Package history retains collected samples for later query: a
// bounded in-memory window for the query path and an optional SQLite
// archive that survives restarts.
package history

import (
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// Store is the in-memory sample window. Appends come from a single
// writer (the collection cycle); queries may run concurrently and
// iterate a point-in-time snapshot. Memory is bounded by the
// retention window, not an explicit count limit.
type Store struct {
	mu        sync.RWMutex
	retention time.Duration
	samples   []sysmetrics.Sample // ascending by Timestamp, unique timestamps
}

// NewStore creates a store with the given retention window.
// Non-positive retention falls back to the default 24h window.
func NewStore(retention time.Duration) *Store {
	if retention <= 0 {
		retention = constants.HistoryRetention
	}
	return &Store{retention: retention}
}

func compareSampleTime(s sysmetrics.Sample, t time.Time) int {
	return s.Timestamp.Compare(t)
}

// Append inserts sample in timestamp order, replacing any existing
// sample with the same timestamp, then lazily purges entries that
// have aged out of the retention window.
func (s *Store) Append(sample sysmetrics.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, found := slices.BinarySearchFunc(s.samples, sample.Timestamp, compareSampleTime)
	if found {
		s.samples[i] = sample
	} else {
		s.samples = slices.Insert(s.samples, i, sample)
	}

	cutoff := time.Now().Add(-s.retention)
	expired := 0
	for expired < len(s.samples) && s.samples[expired].Timestamp.Before(cutoff) {
		expired++
	}
	if expired > 0 {
		s.samples = slices.Delete(s.samples, 0, expired)
	}
}

// Query returns a lazy, restartable sequence over the samples no
// older than lookback, in timestamp order. Each walk iterates a fresh
// point-in-time snapshot: appends racing the walk do not appear until
// the sequence is ranged again. Non-positive lookback means the full
// window.
func (s *Store) Query(lookback time.Duration) iter.Seq[sysmetrics.Sample] {
	if lookback <= 0 {
		lookback = s.retention
	}
	return func(yield func(sysmetrics.Sample) bool) {
		cutoff := time.Now().Add(-lookback)

		s.mu.RLock()
		start, _ := slices.BinarySearchFunc(s.samples, cutoff, compareSampleTime)
		snapshot := slices.Clone(s.samples[start:])
		s.mu.RUnlock()

		for _, sample := range snapshot {
			if !yield(sample) {
				return
			}
		}
	}
}

// Latest returns the most recent sample, if any.
func (s *Store) Latest() (sysmetrics.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.samples) == 0 {
		return sysmetrics.Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Len reports the number of retained samples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}
