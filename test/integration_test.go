package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorses/watchcat/internal/pkg/api"
	"github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/endorses/watchcat/internal/pkg/statusclient"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// TestIntegration_DaemonBasicFlow drives every API endpoint over a real
// TCP listener through the status client.
func TestIntegration_DaemonBasicFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	addr := "127.0.0.1:18791"
	startSimulatedDaemon(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := statusclient.NewStatusClient(statusclient.ClientConfig{Address: addr})
	require.NoError(t, err, "Failed to create status client")
	defer client.Close()

	// Force the first collection pass.
	sample, err := client.TriggerRefresh(ctx)
	require.NoError(t, err, "Failed to trigger refresh")
	assert.Equal(t, sysmetrics.TierSimulated, sample.CPU.Tier)
	assert.False(t, sample.Timestamp.IsZero())

	// The cached status now serves without another pass.
	status, err := client.Realtime(ctx, false)
	require.NoError(t, err, "Failed to fetch realtime status")
	assert.Equal(t, sample.Timestamp, status.Sample.Timestamp)
	assert.NotNil(t, status.Alerts)

	history, err := client.History(ctx, 1)
	require.NoError(t, err, "Failed to fetch history")
	require.NotEmpty(t, history)
	assert.Equal(t, sample.Timestamp, history[len(history)-1].Timestamp)

	info, err := client.Platform(ctx)
	require.NoError(t, err, "Failed to fetch platform info")
	assert.NotZero(t, info.CPUCount)
	assert.NotEmpty(t, info.OS)

	alerts, err := client.Alerts(ctx, 10)
	require.NoError(t, err, "Failed to fetch alerts")
	assert.NotNil(t, alerts)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err, "Failed to reach health endpoint")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
}

// TestIntegration_ConcurrentRealtimeClients hammers the refresh path
// from many clients at once; the engine coalesces overlapping passes,
// so every request must still succeed.
func TestIntegration_ConcurrentRealtimeClients(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	addr := "127.0.0.1:18792"
	startSimulatedDaemon(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const workers = 8
	const callsPerWorker = 3

	errs := make(chan error, workers*callsPerWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := statusclient.NewStatusClient(statusclient.ClientConfig{Address: addr})
			if err != nil {
				errs <- err
				return
			}
			defer client.Close()
			for j := 0; j < callsPerWorker; j++ {
				status, err := client.Realtime(ctx, true)
				if err != nil {
					errs <- err
					return
				}
				if status.Sample.CPU.Tier != sysmetrics.TierSimulated {
					errs <- fmt.Errorf("unexpected tier %q", status.Sample.CPU.Tier)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err, "Concurrent client failed")
	}
}

// TestIntegration_ShutdownStopsServing checks the server drains and
// closes its listener when its context is cancelled, while the engine
// keeps running underneath.
func TestIntegration_ShutdownStopsServing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	addr := "127.0.0.1:18793"

	mon, err := monitor.New(monitor.Config{SimulateOnly: true})
	require.NoError(t, err, "Failed to create engine")
	require.NoError(t, mon.Start(context.Background()), "Failed to start engine")
	defer mon.Stop()

	srv := api.NewServer(api.Config{ListenAddr: addr}, mon)
	srvCtx, srvCancel := context.WithCancel(context.Background())
	srvDone := make(chan error, 1)
	go func() {
		srvDone <- srv.Start(srvCtx)
	}()
	waitForServer(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := statusclient.NewStatusClient(statusclient.ClientConfig{Address: addr})
	require.NoError(t, err, "Failed to create status client")
	defer client.Close()

	_, err = client.Realtime(ctx, true)
	require.NoError(t, err, "Daemon not serving before shutdown")

	srvCancel()
	require.NoError(t, <-srvDone, "Server exited with error")

	_, err = client.Realtime(ctx, true)
	require.Error(t, err, "Expected request to fail after shutdown")
	assert.Contains(t, err.Error(), "failed to reach daemon")

	// Engine survives the API going away.
	_, err = mon.TriggerRefresh(ctx)
	assert.NoError(t, err)
}

// TestIntegration_WebSocketStream subscribes over the websocket
// endpoint and expects the initial snapshot plus one frame per forced
// collection pass.
func TestIntegration_WebSocketStream(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	addr := "127.0.0.1:18794"
	startSimulatedDaemon(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := statusclient.NewStatusClient(statusclient.ClientConfig{Address: addr})
	require.NoError(t, err, "Failed to create status client")
	defer client.Close()

	// Collect once up front so the snapshot below serves the cached
	// sample instead of forcing a pass of its own.
	first, err := client.TriggerRefresh(ctx)
	require.NoError(t, err, "Failed to trigger first refresh")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, fmt.Sprintf("ws://%s/api/v1/ws", addr), nil)
	require.NoError(t, err, "Failed to dial websocket")
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var snapshot monitor.Status
	require.NoError(t, conn.ReadJSON(&snapshot), "Failed to read initial snapshot")
	assert.Equal(t, first.Timestamp, snapshot.Sample.Timestamp)
	assert.Equal(t, sysmetrics.TierSimulated, snapshot.Sample.CPU.Tier)
	assert.NotNil(t, snapshot.Alerts)

	second, err := client.TriggerRefresh(ctx)
	require.NoError(t, err, "Failed to trigger second refresh")

	var pushed monitor.Status
	require.NoError(t, conn.ReadJSON(&pushed), "Failed to read pushed status")
	assert.Equal(t, second.Timestamp, pushed.Sample.Timestamp)
}
