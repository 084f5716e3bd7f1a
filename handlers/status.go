package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"cinebot/services/session"
)

type sessionStats interface {
	Stats() session.Stats
}

var _ sessionStats = (*session.Store)(nil)

// StatusHandler exposes read-only process state for local inspection.
type StatusHandler struct {
	sessions  sessionStats
	threshold float64
	startedAt time.Time
}

// NewStatusHandler creates the status handler; startedAt anchors the uptime
// report.
func NewStatusHandler(sessions sessionStats, threshold float64, startedAt time.Time) *StatusHandler {
	return &StatusHandler{
		sessions:  sessions,
		threshold: threshold,
		startedAt: startedAt,
	}
}

// Status reports uptime, session counters and the configured episode
// threshold.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	stats := h.sessions.Stats()

	response := struct {
		UptimeSeconds   int64         `json:"uptimeSeconds"`
		Sessions        session.Stats `json:"sessions"`
		MinEpisodeScore float64       `json:"minEpisodeScore"`
	}{
		UptimeSeconds:   int64(time.Since(h.startedAt).Seconds()),
		Sessions:        stats,
		MinEpisodeScore: h.threshold,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
