package test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/endorses/watchcat/internal/pkg/api"
	"github.com/endorses/watchcat/internal/pkg/monitor"
)

// startSimulatedDaemon runs a monitor engine with the simulated probe
// tier plus the HTTP API bound to addr, and registers cleanup that
// tears both down. The returned engine is already started.
func startSimulatedDaemon(t *testing.T, addr string) *monitor.Engine {
	t.Helper()

	mon, err := monitor.New(monitor.Config{SimulateOnly: true})
	require.NoError(t, err, "Failed to create engine")
	require.NoError(t, mon.Start(context.Background()), "Failed to start engine")
	t.Cleanup(mon.Stop)

	srv := api.NewServer(api.Config{ListenAddr: addr}, mon)
	srvCtx, srvCancel := context.WithCancel(context.Background())

	srvDone := make(chan error, 1)
	go func() {
		srvDone <- srv.Start(srvCtx)
	}()
	t.Cleanup(func() {
		srvCancel()
		if err := <-srvDone; err != nil {
			t.Errorf("API server exited with error: %v", err)
		}
	})

	waitForServer(t, addr)
	return mon
}

// waitForServer blocks until addr accepts TCP connections or the
// startup deadline passes.
func waitForServer(t *testing.T, addr string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("Server at %s did not become reachable", addr)
}
