// Package handlers provides HTTP handlers for the grantcue API.
package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/grantcue/grantcue/internal/auth"
	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/events"
)

// WebhookRequest represents a request to create or update a webhook.
type WebhookRequest struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

// validateWebhookRequest validates a webhook create/update request body.
// Returns true if valid, false otherwise (and writes error response).
func validateWebhookRequest(w http.ResponseWriter, req *WebhookRequest) bool {
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return false
	}
	if !isValidHTTPURL(req.URL) {
		http.Error(w, "url must be a valid http(s) URL", http.StatusBadRequest)
		return false
	}
	if len(req.Events) == 0 {
		http.Error(w, "events must contain at least one event type", http.StatusBadRequest)
		return false
	}
	for _, ev := range req.Events {
		if !events.IsValidKind(ev) {
			http.Error(w, "unknown event type: "+ev, http.StatusBadRequest)
			return false
		}
	}
	return true
}

// requireAdmin validates that the caller has the admin role.
// Returns the claims and true if valid, zero claims and false otherwise.
func requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return auth.Claims{}, false
	}
	if !claims.IsAdmin() {
		http.Error(w, "Admin role required", http.StatusForbidden)
		return auth.Claims{}, false
	}
	return claims, true
}

// generateWebhookSecret returns a random hex secret for HMAC signing.
func generateWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateWebhookResponse returns the created webhook along with its signing
// secret. The secret is shown only in this response.
type CreateWebhookResponse struct {
	*database.Webhook
	Secret string `json:"secret"`
}

// CreateWebhook creates a new webhook with a server-generated signing secret.
func (h *Handlers) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	claims, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req WebhookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateWebhookRequest(w, &req) {
		return
	}

	secret, err := generateWebhookSecret()
	if err != nil {
		slog.Error("Failed to generate webhook secret", "error", err)
		http.Error(w, "Failed to create webhook", http.StatusInternalServerError)
		return
	}

	webhook, err := h.db.CreateWebhook(r.Context(), claims.OrganizationID, req.Name, req.URL, secret, req.Events)
	if handleDBError(w, err, "webhook", req.Name) {
		return
	}

	h.metrics.IncrementCustom("webhooks_created")

	writeJSON(w, http.StatusCreated, CreateWebhookResponse{Webhook: webhook, Secret: secret})
}

// GetWebhook retrieves a webhook by ID.
func (h *Handlers) GetWebhook(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	webhookID, ok := requireQueryParam(w, r, "webhook_id")
	if !ok {
		return
	}

	webhook, err := h.db.GetWebhook(r.Context(), webhookID, claims.OrganizationID)
	if err != nil {
		slog.Error("Failed to get webhook", "error", err, "webhook_id", webhookID)
		http.Error(w, "Webhook not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, webhook)
}

// ListWebhooks retrieves webhooks for the caller's organization.
func (h *Handlers) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	p := parsePagination(r)
	result, err := h.db.ListWebhooks(r.Context(), claims.OrganizationID, p.Limit, p.Offset)
	if err != nil {
		slog.Error("Failed to list webhooks", "error", err)
		http.Error(w, "Failed to list webhooks", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UpdateWebhook updates a webhook. The signing secret is never changed here.
func (h *Handlers) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}

	claims, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	webhookID, ok := requireQueryParam(w, r, "webhook_id")
	if !ok {
		return
	}

	var req WebhookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateWebhookRequest(w, &req) {
		return
	}

	webhook, err := h.db.UpdateWebhook(r.Context(), webhookID, claims.OrganizationID, req.Name, req.URL, req.Events)
	if handleDBError(w, err, "webhook", webhookID) {
		return
	}

	writeJSON(w, http.StatusOK, webhook)
}

// ToggleWebhookActiveRequest represents a request to toggle webhook active status.
type ToggleWebhookActiveRequest struct {
	Active bool `json:"active"`
}

// ToggleWebhookActive toggles the active status of a webhook.
func (h *Handlers) ToggleWebhookActive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	claims, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	webhookID, ok := requireQueryParam(w, r, "webhook_id")
	if !ok {
		return
	}

	var req ToggleWebhookActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	webhook, err := h.db.ToggleWebhookActive(r.Context(), webhookID, claims.OrganizationID, req.Active)
	if handleDBError(w, err, "webhook", webhookID) {
		return
	}

	writeJSON(w, http.StatusOK, webhook)
}

// DeleteWebhook deletes a webhook and its delivery history.
func (h *Handlers) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	claims, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	webhookID, ok := requireQueryParam(w, r, "webhook_id")
	if !ok {
		return
	}

	if err := h.db.DeleteWebhook(r.Context(), webhookID, claims.OrganizationID); err != nil {
		slog.Error("Failed to delete webhook", "error", err, "webhook_id", webhookID)
		if handleDBError(w, err, "webhook", webhookID) {
			return
		}
		http.Error(w, "Failed to delete webhook", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListDeliveries retrieves the delivery audit log for a webhook.
func (h *Handlers) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	webhookID, ok := requireQueryParam(w, r, "webhook_id")
	if !ok {
		return
	}

	ctx := r.Context()

	// Scope check before listing, deliveries table has no org column
	if _, err := h.db.GetWebhook(ctx, webhookID, claims.OrganizationID); err != nil {
		slog.Error("Failed to get webhook for deliveries", "error", err, "webhook_id", webhookID)
		http.Error(w, "Webhook not found", http.StatusNotFound)
		return
	}

	p := parsePagination(r)
	deliveries, err := h.db.ListDeliveries(ctx, webhookID, p.Limit)
	if err != nil {
		slog.Error("Failed to list deliveries", "error", err, "webhook_id", webhookID)
		http.Error(w, "Failed to list deliveries", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, deliveries)
}
