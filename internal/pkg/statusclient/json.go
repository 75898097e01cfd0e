package statusclient

import (
	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// historyDocument mirrors the API history response.
type historyDocument struct {
	Hours   int                 `json:"hours"`
	Count   int                 `json:"count"`
	Samples []sysmetrics.Sample `json:"samples"`
}

// alertsDocument mirrors the API alerts response.
type alertsDocument struct {
	Count  int              `json:"count"`
	Alerts []alerting.Alert `json:"alerts"`
}

// errorDocument mirrors the API error response.
type errorDocument struct {
	Error string `json:"error"`
}
