package sysmetrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounterRatePercent(t *testing.T) {
	t0 := time.Now()

	tests := []struct {
		name string
		prev Counters
		cur  Counters
		want float64
	}{
		{
			name: "ninety percent busy across the window",
			// idle 10->15, total 100->150: busy 90->135
			prev: Counters{Used: 90, Total: 100, At: t0},
			cur:  Counters{Used: 135, Total: 150, At: t0.Add(time.Second)},
			want: 90,
		},
		{
			name: "fully idle window",
			prev: Counters{Used: 90, Total: 100, At: t0},
			cur:  Counters{Used: 90, Total: 200, At: t0.Add(time.Second)},
			want: 0,
		},
		{
			name: "fully busy window",
			prev: Counters{Used: 100, Total: 100, At: t0},
			cur:  Counters{Used: 200, Total: 200, At: t0.Add(time.Second)},
			want: 100,
		},
		{
			name: "first cycle has no baseline",
			prev: Counters{},
			cur:  Counters{Used: 135, Total: 150, At: t0},
			want: 0,
		},
		{
			name: "used counter regressed after reboot",
			prev: Counters{Used: 500, Total: 600, At: t0},
			cur:  Counters{Used: 10, Total: 700, At: t0.Add(time.Second)},
			want: 0,
		},
		{
			name: "total counter regressed after reboot",
			prev: Counters{Used: 500, Total: 600, At: t0},
			cur:  Counters{Used: 510, Total: 20, At: t0.Add(time.Second)},
			want: 0,
		},
		{
			name: "no total time elapsed",
			prev: Counters{Used: 90, Total: 100, At: t0},
			cur:  Counters{Used: 90, Total: 100, At: t0.Add(time.Second)},
			want: 0,
		},
		{
			name: "used delta exceeding total delta clamps to 100",
			prev: Counters{Used: 0, Total: 100, At: t0},
			cur:  Counters{Used: 80, Total: 150, At: t0.Add(time.Second)},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CounterRatePercent(tt.prev, tt.cur), 0.0001)
		})
	}
}

func TestThroughputPercent(t *testing.T) {
	t0 := time.Now()

	tests := []struct {
		name     string
		prev     Counters
		cur      Counters
		capacity float64
		want     float64
	}{
		{
			name: "saturated gigabit link",
			// 1000 Mbps = 125,000,000 bytes/sec
			prev:     Counters{Used: 0, At: t0},
			cur:      Counters{Used: 125_000_000, At: t0.Add(time.Second)},
			capacity: 1000,
			want:     100,
		},
		{
			name:     "half utilized link",
			prev:     Counters{Used: 1_000_000, At: t0},
			cur:      Counters{Used: 1_000_000 + 62_500_000, At: t0.Add(time.Second)},
			capacity: 1000,
			want:     50,
		},
		{
			name:     "idle link",
			prev:     Counters{Used: 42, At: t0},
			cur:      Counters{Used: 42, At: t0.Add(time.Second)},
			capacity: 1000,
			want:     0,
		},
		{
			name:     "first cycle has no baseline",
			prev:     Counters{},
			cur:      Counters{Used: 99, At: t0},
			capacity: 1000,
			want:     0,
		},
		{
			name:     "counter regressed after reboot",
			prev:     Counters{Used: 500, At: t0},
			cur:      Counters{Used: 10, At: t0.Add(time.Second)},
			capacity: 1000,
			want:     0,
		},
		{
			name:     "no wall time elapsed",
			prev:     Counters{Used: 0, At: t0},
			cur:      Counters{Used: 125_000_000, At: t0},
			capacity: 1000,
			want:     0,
		},
		{
			name:     "burst above capacity clamps to 100",
			prev:     Counters{Used: 0, At: t0},
			cur:      Counters{Used: 300_000_000, At: t0.Add(time.Second)},
			capacity: 1000,
			want:     100,
		},
		{
			name:     "zero capacity yields zero",
			prev:     Counters{Used: 0, At: t0},
			cur:      Counters{Used: 1000, At: t0.Add(time.Second)},
			capacity: 0,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ThroughputPercent(tt.prev, tt.cur, tt.capacity), 0.0001)
		})
	}
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, clampPercent(-5))
	assert.Equal(t, 100.0, clampPercent(250))
	assert.Equal(t, 42.5, clampPercent(42.5))
	assert.Equal(t, 0.0, clampPercent(math.NaN()))
}

func TestValidPercent(t *testing.T) {
	assert.True(t, validPercent(0))
	assert.True(t, validPercent(150)) // out of range is clamped, not rejected
	assert.False(t, validPercent(math.NaN()))
	assert.False(t, validPercent(math.Inf(1)))
	assert.False(t, validPercent(math.Inf(-1)))
}
