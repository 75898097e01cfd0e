// Package constants provides shared constants used across watchcat components.
package constants

import "time"

// Collection timing
const (
	// DefaultCollectionInterval is the default period between automatic
	// metric collection cycles
	DefaultCollectionInterval = 30 * time.Second

	// ProbeTimeout is the time budget for a single acquisition tier of a
	// single probe (native command or portable library call)
	ProbeTimeout = 2 * time.Second

	// CollectionCycleTimeout bounds one full collection pass across all
	// probes including fallback tiers
	CollectionCycleTimeout = 10 * time.Second

	// MinCollectionInterval is the smallest interval accepted from
	// configuration; anything lower would overlap probe timeouts
	MinCollectionInterval = 5 * time.Second
)

// Graceful termination timeouts
const (
	// APIShutdownTimeout is the time to wait for in-flight HTTP requests
	// to drain during server shutdown
	APIShutdownTimeout = 5 * time.Second
)

// History retention
const (
	// HistoryRetention is the sliding window kept by the in-memory history
	// store. Memory is bounded by the window and the collection interval,
	// not by an explicit sample count (24h at the default 30s interval
	// holds 2880 samples).
	HistoryRetention = 24 * time.Hour

	// ArchivePruneInterval is how often expired rows are removed from the
	// on-disk archive
	ArchivePruneInterval = 1 * time.Hour
)

// Alerting
const (
	// AlertLogCapacity is the number of recent alerts retained in the
	// in-memory alert ring
	AlertLogCapacity = 256
)

// Network normalization
const (
	// DefaultLinkCapacityMbps is the assumed link speed used to express
	// network throughput as a percentage when no capacity is configured
	DefaultLinkCapacityMbps = 1000
)

// Channel buffer sizes
//
// Buffer Sizing Strategy:
//
// 1. Single-item buffers (size = 1):
//   - Used for signals and errors that should never block the sender
//   - Examples: OS signals, error channels
//   - Rationale: These are infrequent events that must be handled immediately
//
// 2. Small buffers (size = 16):
//   - Used for broadcast channels fed at collection cadence
//   - Examples: cycle status subscribers
//   - Rationale: Cycles complete every few seconds at most; a small cushion
//     lets slow consumers catch up without unbounded memory growth
//
// Note: These are default sizes. Critical buffers can be made configurable via
// Config structs if deployment-specific tuning is needed.
const (
	// SignalChannelBuffer is the buffer size for OS signal channels (strategy: single-item)
	SignalChannelBuffer = 1

	// ErrorChannelBuffer is the buffer size for error reporting channels (strategy: single-item)
	ErrorChannelBuffer = 1

	// SubscriberChannelBuffer is the buffer size for cycle status broadcast channels (strategy: small)
	// A subscriber with a full channel misses the cycle rather than stalling collection
	SubscriberChannelBuffer = 16
)

// HTTP API configuration
const (
	// DefaultAPIListenAddr binds to loopback; exposing the API wider is
	// an explicit configuration choice
	DefaultAPIListenAddr = "127.0.0.1:8787"

	// APIReadTimeout bounds request header and body reads
	APIReadTimeout = 5 * time.Second

	// APIWriteTimeout bounds response writes for non-streaming handlers
	APIWriteTimeout = 10 * time.Second

	// APIIdleTimeout bounds keep-alive connections between requests
	APIIdleTimeout = 120 * time.Second

	// MaxHistoryHours is the largest lookback the history endpoint accepts;
	// matches the retention window so queries cannot outrun the store
	MaxHistoryHours = 24
)
