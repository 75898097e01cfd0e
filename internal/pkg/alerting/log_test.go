package alerting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

func alertWithValue(value float64) Alert {
	return Alert{
		ID:        uuid.New(),
		Metric:    sysmetrics.CPU,
		Severity:  SeverityWarning,
		Value:     value,
		Threshold: 70,
		Timestamp: time.Now(),
	}
}

func TestLogAppendAndRecent(t *testing.T) {
	log := NewLog(8)
	log.Append(alertWithValue(1), alertWithValue(2), alertWithValue(3))

	got := log.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, 3.0, got[0].Value, "newest alert comes first")
	assert.Equal(t, 2.0, got[1].Value)
	assert.Equal(t, 1.0, got[2].Value)
	assert.Equal(t, 3, log.Len())
}

func TestLogRecentHonorsLimit(t *testing.T) {
	log := NewLog(8)
	for i := 1; i <= 5; i++ {
		log.Append(alertWithValue(float64(i)))
	}

	got := log.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, 5.0, got[0].Value)
	assert.Equal(t, 4.0, got[1].Value)

	assert.Len(t, log.Recent(100), 5, "limit beyond size returns everything")
}

func TestLogOverwritesOldestWhenFull(t *testing.T) {
	log := NewLog(4)
	for i := 1; i <= 6; i++ {
		log.Append(alertWithValue(float64(i)))
	}

	got := log.Recent(0)
	require.Len(t, got, 4)
	assert.Equal(t, []float64{6, 5, 4, 3},
		[]float64{got[0].Value, got[1].Value, got[2].Value, got[3].Value})
	assert.Equal(t, 4, log.Len())
}

func TestLogEmpty(t *testing.T) {
	log := NewLog(4)
	assert.Empty(t, log.Recent(0))
	assert.Equal(t, 0, log.Len())
	log.Append()
	assert.Equal(t, 0, log.Len())
}

func TestNewLogDefaultsCapacity(t *testing.T) {
	log := NewLog(0)
	for i := 0; i < constants.AlertLogCapacity+10; i++ {
		log.Append(alertWithValue(float64(i)))
	}
	assert.Equal(t, constants.AlertLogCapacity, log.Len())
}
