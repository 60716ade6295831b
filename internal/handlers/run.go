// Package handlers provides HTTP handlers for the grantcue API.
package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"
)

// RunAlerts triggers one matching run over all active alerts. The endpoint
// accepts GET and POST so cron schedulers of either persuasion can call it,
// and is guarded by a static scheduler token instead of a user JWT.
func (h *Handlers) RunAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := r.Header.Get("X-Scheduler-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.schedulerToken)) != 1 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.metrics.RecordReceived()
	start := time.Now()

	result, err := h.runner.Run(r.Context())
	if err != nil {
		slog.Error("Alert run failed", "error", err)
		h.metrics.RecordError()
		http.Error(w, "Alert run failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.metrics.RecordProcessed(time.Since(start))
	slog.Info("Alert run finished",
		"alerts_checked", result.AlertsChecked,
		"matches_created", result.MatchesCreated,
		"emails_queued", result.EmailsQueued,
		"duration", time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

// Health reports service liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
