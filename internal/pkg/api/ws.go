package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/logger"
	"github.com/endorses/watchcat/internal/pkg/monitor"
)

// handleWebSocket upgrades the connection and pushes the Status of
// every completed collection cycle until the client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.engine.Subscribe(constants.SubscriberChannelBuffer)
	defer cancel()

	// Initial snapshot so clients can render without waiting out a
	// full collection interval.
	if status, err := s.engine.Realtime(r.Context(), false); err == nil {
		if writeStatus(conn, status) != nil {
			return
		}
	}

	// Read pump: the client never sends data we care about, but
	// reading is how we learn the connection closed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			if err := writeStatus(conn, status); err != nil {
				logger.Debug("Websocket write failed", "error", err)
				return
			}
		}
	}
}

func writeStatus(conn *websocket.Conn, status monitor.Status) error {
	if status.Alerts == nil {
		status.Alerts = []alerting.Alert{}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(constants.APIWriteTimeout))
	return conn.WriteJSON(status)
}
