// Package handlers provides HTTP handlers for the grantcue API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/grantcue/grantcue/internal/auth"
)

// CreateIntegrationRequest represents a request to create a chat integration.
type CreateIntegrationRequest struct {
	Provider   string `json:"provider"` // slack, teams
	WebhookURL string `json:"webhook_url"`
}

// CreateIntegration creates a new chat integration for the caller's organization.
func (h *Handlers) CreateIntegration(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	claims, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req CreateIntegrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !isValidProvider(req.Provider) {
		http.Error(w, "provider must be one of: slack, teams", http.StatusBadRequest)
		return
	}
	if !isValidHTTPURL(req.WebhookURL) {
		http.Error(w, "webhook_url must be a valid http(s) URL", http.StatusBadRequest)
		return
	}

	integration, err := h.db.CreateIntegration(r.Context(), claims.OrganizationID, req.Provider, req.WebhookURL)
	if handleDBError(w, err, "integration", req.Provider) {
		return
	}

	writeJSON(w, http.StatusCreated, integration)
}

// ListIntegrations retrieves chat integrations for the caller's organization.
func (h *Handlers) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	integrations, err := h.db.ListIntegrations(r.Context(), claims.OrganizationID)
	if err != nil {
		slog.Error("Failed to list integrations", "error", err)
		http.Error(w, "Failed to list integrations", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, integrations)
}

// ToggleIntegrationActiveRequest represents a request to toggle integration active status.
type ToggleIntegrationActiveRequest struct {
	Active bool `json:"active"`
}

// ToggleIntegrationActive toggles the active status of a chat integration.
func (h *Handlers) ToggleIntegrationActive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	claims, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	integrationID, ok := requireQueryParam(w, r, "integration_id")
	if !ok {
		return
	}

	var req ToggleIntegrationActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	integration, err := h.db.ToggleIntegrationActive(r.Context(), integrationID, claims.OrganizationID, req.Active)
	if handleDBError(w, err, "integration", integrationID) {
		return
	}

	writeJSON(w, http.StatusOK, integration)
}

// DeleteIntegration deletes a chat integration.
func (h *Handlers) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	claims, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	integrationID, ok := requireQueryParam(w, r, "integration_id")
	if !ok {
		return
	}

	if err := h.db.DeleteIntegration(r.Context(), integrationID, claims.OrganizationID); err != nil {
		slog.Error("Failed to delete integration", "error", err, "integration_id", integrationID)
		if handleDBError(w, err, "integration", integrationID) {
			return
		}
		http.Error(w, "Failed to delete integration", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
