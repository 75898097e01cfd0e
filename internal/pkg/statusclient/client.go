// Package statusclient provides an HTTP client for querying a running
// monitor daemon. CLI commands use it for remote status output.
package statusclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/endorses/watchcat/internal/pkg/platform"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// ClientConfig holds configuration for the status client
type ClientConfig struct {
	// Address of the daemon API (host:port)
	Address string

	// Timeout for requests (default: 30s)
	Timeout time.Duration
}

// StatusClient queries the JSON API of a running monitor daemon
type StatusClient struct {
	baseURL string
	httpc   *http.Client
	config  ClientConfig
}

// NewStatusClient builds a client for the daemon at config.Address
func NewStatusClient(config ClientConfig) (*StatusClient, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("daemon address is required")
	}

	// Set default timeout
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := config.Address
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &StatusClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		config:  config,
	}, nil
}

// Close releases idle connections held by the client
func (c *StatusClient) Close() error {
	c.httpc.CloseIdleConnections()
	return nil
}

// Realtime retrieves the latest status, forcing a fresh collection
// pass when refresh is true
func (c *StatusClient) Realtime(ctx context.Context, refresh bool) (monitor.Status, error) {
	url := c.baseURL + "/api/v1/realtime"
	if refresh {
		url += "?refresh=1"
	}

	var status monitor.Status
	if err := c.getJSON(ctx, url, &status); err != nil {
		return monitor.Status{}, err
	}
	return status, nil
}

// TriggerRefresh forces a collection pass and returns the sample
func (c *StatusClient) TriggerRefresh(ctx context.Context) (sysmetrics.Sample, error) {
	var sample sysmetrics.Sample
	if err := c.postJSON(ctx, c.baseURL+"/api/v1/refresh", &sample); err != nil {
		return sysmetrics.Sample{}, err
	}
	return sample, nil
}

// Platform retrieves the platform description detected by the daemon
func (c *StatusClient) Platform(ctx context.Context) (platform.Info, error) {
	var info platform.Info
	if err := c.getJSON(ctx, c.baseURL+"/api/v1/platform", &info); err != nil {
		return platform.Info{}, err
	}
	return info, nil
}

// History retrieves up to hours of retained samples
func (c *StatusClient) History(ctx context.Context, hours int) ([]sysmetrics.Sample, error) {
	url := c.baseURL + "/api/v1/history"
	if hours > 0 {
		url += "?hours=" + strconv.Itoa(hours)
	}

	var doc historyDocument
	if err := c.getJSON(ctx, url, &doc); err != nil {
		return nil, err
	}
	return doc.Samples, nil
}

// Alerts retrieves up to limit recent alerts, newest first
func (c *StatusClient) Alerts(ctx context.Context, limit int) ([]alerting.Alert, error) {
	url := c.baseURL + "/api/v1/alerts"
	if limit > 0 {
		url += "?limit=" + strconv.Itoa(limit)
	}

	var doc alertsDocument
	if err := c.getJSON(ctx, url, &doc); err != nil {
		return nil, err
	}
	return doc.Alerts, nil
}

func (c *StatusClient) getJSON(ctx context.Context, url string, out any) error {
	return c.doJSON(ctx, http.MethodGet, url, out)
}

func (c *StatusClient) postJSON(ctx context.Context, url string, out any) error {
	return c.doJSON(ctx, http.MethodPost, url, out)
}

func (c *StatusClient) doJSON(ctx context.Context, method, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", c.config.Address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var doc errorDocument
		if decodeErr := json.NewDecoder(resp.Body).Decode(&doc); decodeErr == nil && doc.Error != "" {
			return fmt.Errorf("daemon returned %s: %s", resp.Status, doc.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
