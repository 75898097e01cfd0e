package api

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/endorses/watchcat/internal/pkg/platform"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// stubEngine satisfies Engine with canned data so handler behavior
// can be tested without collecting anything.
type stubEngine struct {
	status  monitor.Status
	sample  sysmetrics.Sample
	info    platform.Info
	samples []sysmetrics.Sample
	alerts  []alerting.Alert
	err     error
	updates chan monitor.Status

	refreshes atomic.Int32
}

func (s *stubEngine) TriggerRefresh(ctx context.Context) (sysmetrics.Sample, error) {
	s.refreshes.Add(1)
	return s.sample, s.err
}

func (s *stubEngine) Realtime(ctx context.Context, refresh bool) (monitor.Status, error) {
	if refresh {
		s.refreshes.Add(1)
	}
	return s.status, s.err
}

func (s *stubEngine) Platform() platform.Info {
	return s.info
}

func (s *stubEngine) History(window time.Duration) iter.Seq[sysmetrics.Sample] {
	return slices.Values(s.samples)
}

func (s *stubEngine) Alerts(n int) []alerting.Alert {
	if n > 0 && n < len(s.alerts) {
		return s.alerts[:n]
	}
	return s.alerts
}

func (s *stubEngine) Subscribe(buffer int) (<-chan monitor.Status, func()) {
	return s.updates, func() {}
}

func testSample(ts time.Time, cpu float64) sysmetrics.Sample {
	return sysmetrics.Sample{
		Timestamp: ts,
		CPU:       sysmetrics.Reading{Percent: cpu, Tier: sysmetrics.TierNative},
		Memory:    sysmetrics.Reading{Percent: 40, Tier: sysmetrics.TierNative},
		Disk:      sysmetrics.Reading{Percent: 50, Tier: sysmetrics.TierPortable},
		Network:   sysmetrics.Reading{Percent: 10, Tier: sysmetrics.TierSimulated},
	}
}

// doRequest runs one request against the route table and decodes the
// JSON response into out when it is non-nil.
func doRequest(t *testing.T, engine *stubEngine, method, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(Config{}, engine)
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestHealthz(t *testing.T) {
	var health healthResponse
	rec := doRequest(t, &stubEngine{}, http.MethodGet, "/healthz", &health)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Version.Version)
}

func TestMethodGuards(t *testing.T) {
	tests := []struct {
		method string
		target string
	}{
		{http.MethodPost, "/api/v1/realtime"},
		{http.MethodGet, "/api/v1/refresh"},
		{http.MethodPost, "/api/v1/history"},
		{http.MethodPost, "/api/v1/platform"},
		{http.MethodDelete, "/api/v1/alerts"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := doRequest(t, &stubEngine{}, tt.method, tt.target, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestNewServerDefaultsListenAddr(t *testing.T) {
	srv := NewServer(Config{}, &stubEngine{})
	assert.NotEmpty(t, srv.config.ListenAddr)
}

func TestServerStartStopsOnContextCancel(t *testing.T) {
	srv := NewServer(Config{ListenAddr: "127.0.0.1:0"}, &stubEngine{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	// Give the listener a moment to come up, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down on context cancellation")
	}
}
