package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/logger"
	"github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
	"github.com/endorses/watchcat/internal/pkg/version"
)

type errorResponse struct {
	Error string `json:"error"`
}

type historyResponse struct {
	Hours   int                 `json:"hours"`
	Count   int                 `json:"count"`
	Samples []sysmetrics.Sample `json:"samples"`
}

type alertsResponse struct {
	Count  int              `json:"count"`
	Alerts []alerting.Alert `json:"alerts"`
}

type healthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// engineStatusCode maps engine errors onto HTTP statuses.
func engineStatusCode(err error) int {
	if errors.Is(err, monitor.ErrNotRunning) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	refresh := r.URL.Query().Get("refresh")
	status, err := s.engine.Realtime(r.Context(), refresh == "1" || refresh == "true")
	if err != nil {
		writeError(w, engineStatusCode(err), err.Error())
		return
	}
	if status.Alerts == nil {
		status.Alerts = []alerting.Alert{}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sample, err := s.engine.TriggerRefresh(r.Context())
	if err != nil {
		writeError(w, engineStatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	hours := constants.MaxHistoryHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = parsed
	}
	if hours > constants.MaxHistoryHours {
		hours = constants.MaxHistoryHours
	}

	samples := make([]sysmetrics.Sample, 0, 64)
	for sample := range s.engine.History(time.Duration(hours) * time.Hour) {
		samples = append(samples, sample)
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Hours:   hours,
		Count:   len(samples),
		Samples: samples,
	})
}

func (s *Server) handlePlatform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Platform())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	alerts := s.engine.Alerts(limit)
	if alerts == nil {
		alerts = []alerting.Alert{}
	}
	writeJSON(w, http.StatusOK, alertsResponse{
		Count:  len(alerts),
		Alerts: alerts,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Get(),
	})
}
