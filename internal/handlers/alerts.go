// Package handlers provides HTTP handlers for the grantcue API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/grantcue/grantcue/internal/auth"
	"github.com/grantcue/grantcue/internal/database"
)

// AlertRequest represents a request to create or update an alert.
type AlertRequest struct {
	Name             string   `json:"name"`
	Keyword          *string  `json:"keyword"`
	Category         *string  `json:"category"`
	Agency           *string  `json:"agency"`
	StatusPosted     bool     `json:"status_posted"`
	StatusForecasted bool     `json:"status_forecasted"`
	DueInDays        *int     `json:"due_in_days"`
	MinAmount        *float64 `json:"min_amount"`
	MaxAmount        *float64 `json:"max_amount"`
	NotifyEmail      bool     `json:"notify_email"`
	NotifyInApp      bool     `json:"notify_in_app"`
	NotifyWebhook    bool     `json:"notify_webhook"`
	WebhookURL       *string  `json:"webhook_url"`
	Cadence          string   `json:"cadence"`
}

// validateAlertRequest validates an alert create/update request body.
// Returns true if valid, false otherwise (and writes error response).
func validateAlertRequest(w http.ResponseWriter, req *AlertRequest) bool {
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return false
	}
	if req.Cadence == "" {
		req.Cadence = "immediate"
	}
	if !isValidCadence(req.Cadence) {
		http.Error(w, "cadence must be one of: immediate, daily, weekly", http.StatusBadRequest)
		return false
	}
	if req.DueInDays != nil && *req.DueInDays < 0 {
		http.Error(w, "due_in_days must not be negative", http.StatusBadRequest)
		return false
	}
	if req.MinAmount != nil && req.MaxAmount != nil && *req.MinAmount > *req.MaxAmount {
		http.Error(w, "min_amount must not exceed max_amount", http.StatusBadRequest)
		return false
	}
	if req.NotifyWebhook {
		if req.WebhookURL == nil || !isValidHTTPURL(*req.WebhookURL) {
			http.Error(w, "webhook_url must be a valid http(s) URL when notify_webhook is set", http.StatusBadRequest)
			return false
		}
	}
	return true
}

func alertParamsFromRequest(req *AlertRequest) database.AlertParams {
	return database.AlertParams{
		Name:             req.Name,
		Keyword:          req.Keyword,
		Category:         req.Category,
		Agency:           req.Agency,
		StatusPosted:     req.StatusPosted,
		StatusForecasted: req.StatusForecasted,
		DueInDays:        req.DueInDays,
		MinAmount:        req.MinAmount,
		MaxAmount:        req.MaxAmount,
		NotifyEmail:      req.NotifyEmail,
		NotifyInApp:      req.NotifyInApp,
		NotifyWebhook:    req.NotifyWebhook,
		WebhookURL:       req.WebhookURL,
		Cadence:          req.Cadence,
	}
}

// CreateAlert creates a new alert and publishes an alert.changed event.
func (h *Handlers) CreateAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req AlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateAlertRequest(w, &req) {
		return
	}

	ctx := r.Context()
	alert, err := h.db.CreateAlert(ctx, claims.OrganizationID, claims.UserID, alertParamsFromRequest(&req))
	if handleDBError(w, err, "alert", req.Name) {
		return
	}

	h.publishAlertChangedEvent(ctx, alert, actionCreated)
	h.metrics.IncrementCustom("alerts_created")

	writeJSON(w, http.StatusCreated, alert)
}

// GetAlert retrieves an alert by ID.
func (h *Handlers) GetAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	alertID, ok := requireQueryParam(w, r, "alert_id")
	if !ok {
		return
	}

	alert, err := h.db.GetAlert(r.Context(), alertID, claims.OrganizationID)
	if err != nil {
		slog.Error("Failed to get alert", "error", err, "alert_id", alertID)
		http.Error(w, "Alert not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// ListAlerts retrieves alerts for the caller's organization.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	p := parsePagination(r)
	result, err := h.db.ListAlerts(r.Context(), claims.OrganizationID, p.Limit, p.Offset)
	if err != nil {
		slog.Error("Failed to list alerts", "error", err)
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UpdateAlert updates an alert and publishes an alert.changed event.
func (h *Handlers) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	alertID, ok := requireQueryParam(w, r, "alert_id")
	if !ok {
		return
	}

	var req AlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateAlertRequest(w, &req) {
		return
	}

	ctx := r.Context()
	alert, err := h.db.UpdateAlert(ctx, alertID, claims.OrganizationID, alertParamsFromRequest(&req))
	if handleDBError(w, err, "alert", alertID) {
		return
	}

	h.publishAlertChangedEvent(ctx, alert, actionUpdated)

	writeJSON(w, http.StatusOK, alert)
}

// ToggleAlertActiveRequest represents a request to toggle alert active status.
type ToggleAlertActiveRequest struct {
	Active bool `json:"active"`
}

// ToggleAlertActive toggles the active status of an alert and publishes an alert.changed event.
func (h *Handlers) ToggleAlertActive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	alertID, ok := requireQueryParam(w, r, "alert_id")
	if !ok {
		return
	}

	var req ToggleAlertActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	alert, err := h.db.ToggleAlertActive(ctx, alertID, claims.OrganizationID, req.Active)
	if handleDBError(w, err, "alert", alertID) {
		return
	}

	action := actionDisabled
	if alert.IsActive {
		action = actionUpdated // Re-enabling is treated as update
	}
	h.publishAlertChangedEvent(ctx, alert, action)

	writeJSON(w, http.StatusOK, alert)
}

// DeleteAlert deletes an alert owned by the caller and publishes an alert.changed event.
func (h *Handlers) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	alertID, ok := requireQueryParam(w, r, "alert_id")
	if !ok {
		return
	}

	ctx := r.Context()

	// Get alert before deletion to publish event
	alert, err := h.db.GetAlert(ctx, alertID, claims.OrganizationID)
	if err != nil {
		slog.Error("Failed to get alert for deletion", "error", err, "alert_id", alertID)
		http.Error(w, "Alert not found", http.StatusNotFound)
		return
	}

	if err := h.db.DeleteAlert(ctx, alertID, claims.UserID); err != nil {
		slog.Error("Failed to delete alert", "error", err, "alert_id", alertID)
		if handleDBError(w, err, "alert", alertID) {
			return
		}
		http.Error(w, "Failed to delete alert", http.StatusInternalServerError)
		return
	}

	h.publishAlertDeletedEvent(ctx, alert)

	w.WriteHeader(http.StatusNoContent)
}

// ListAlertMatches retrieves recorded matches for an alert.
func (h *Handlers) ListAlertMatches(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	alertID, ok := requireQueryParam(w, r, "alert_id")
	if !ok {
		return
	}

	ctx := r.Context()

	// Scope check before listing, matches table has no org column
	if _, err := h.db.GetAlert(ctx, alertID, claims.OrganizationID); err != nil {
		slog.Error("Failed to get alert for matches", "error", err, "alert_id", alertID)
		http.Error(w, "Alert not found", http.StatusNotFound)
		return
	}

	p := parsePagination(r)
	matches, err := h.db.ListMatches(ctx, alertID, p.Limit)
	if err != nil {
		slog.Error("Failed to list matches", "error", err, "alert_id", alertID)
		http.Error(w, "Failed to list matches", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, matches)
}
