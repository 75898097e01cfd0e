package alerting

import (
	"sync"

	"github.com/endorses/watchcat/internal/pkg/constants"
)

// Log is a fixed-capacity circular buffer of alerts. Once full, each
// append overwrites the oldest entry, so memory stays bounded no
// matter how often thresholds are breached.
type Log struct {
	mu       sync.RWMutex
	data     []Alert
	capacity int
	head     int // next write position
	count    int // number of valid entries
}

// NewLog creates an alert log holding at most capacity entries.
// Non-positive capacities fall back to the default.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = constants.AlertLogCapacity
	}
	return &Log{
		data:     make([]Alert, capacity),
		capacity: capacity,
	}
}

// Append records alerts in the order given, overwriting the oldest
// entries when the log is full.
func (l *Log) Append(alerts ...Alert) {
	if len(alerts) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range alerts {
		l.data[l.head] = a
		l.head = (l.head + 1) % l.capacity
		if l.count < l.capacity {
			l.count++
		}
	}
}

// Recent returns up to limit alerts, newest first. A non-positive
// limit returns everything the log holds.
func (l *Log) Recent(limit int) []Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := l.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Alert, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.head - i + l.capacity) % l.capacity
		out = append(out, l.data[idx])
	}
	return out
}

// Len returns the number of alerts currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}
