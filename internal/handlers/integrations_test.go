package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grantcue/grantcue/internal/database"
)

func TestHandlers_CreateIntegration(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		body           string
		expectedStatus int
	}{
		{
			name:           "slack integration",
			role:           "admin",
			body:           `{"provider":"slack","webhook_url":"https://hooks.slack.com/services/T0/B0/x"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "teams integration",
			role:           "admin",
			body:           `{"provider":"teams","webhook_url":"https://example.webhook.office.com/webhookb2/x"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "member forbidden",
			role:           "member",
			body:           `{"provider":"slack","webhook_url":"https://hooks.slack.com/services/T0/B0/x"}`,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "unknown provider",
			role:           "admin",
			body:           `{"provider":"discord","webhook_url":"https://discord.com/api/webhooks/x"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid URL",
			role:           "admin",
			body:           `{"provider":"slack","webhook_url":"not-a-url"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(&mockRepository{})
			w := httptest.NewRecorder()

			h.CreateIntegration(w, authedRequestAs(http.MethodPost, "/api/v1/integrations", tt.body, tt.role))

			if w.Code != tt.expectedStatus {
				t.Errorf("CreateIntegration() status = %v, want %v (body %q)", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}
}

func TestHandlers_ListIntegrations(t *testing.T) {
	repo := &mockRepository{
		ListIntegrationsFn: func(ctx context.Context, orgID string) ([]*database.Integration, error) {
			return []*database.Integration{
				{IntegrationID: "int-1", OrganizationID: orgID, Provider: "slack", IsActive: true},
			}, nil
		},
	}
	h, _ := newTestHandlers(repo)
	w := httptest.NewRecorder()

	h.ListIntegrations(w, authedRequest(http.MethodGet, "/api/v1/integrations", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v", w.Code)
	}

	var integrations []*database.Integration
	if err := json.NewDecoder(w.Body).Decode(&integrations); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(integrations) != 1 || integrations[0].Provider != "slack" {
		t.Errorf("integrations = %+v", integrations)
	}
}

func TestHandlers_ToggleIntegrationActive(t *testing.T) {
	h, _ := newTestHandlers(&mockRepository{})
	w := httptest.NewRecorder()

	h.ToggleIntegrationActive(w, authedRequestAs(http.MethodPost, "/api/v1/integrations/toggle?integration_id=int-1", `{"active":false}`, "admin"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v", w.Code)
	}

	var integration database.Integration
	if err := json.NewDecoder(w.Body).Decode(&integration); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if integration.IsActive {
		t.Error("integration still active after disable")
	}
}

func TestHandlers_DeleteIntegration(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		repo           *mockRepository
		expectedStatus int
	}{
		{
			name:           "successful delete",
			role:           "admin",
			repo:           &mockRepository{},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "member forbidden",
			role:           "member",
			repo:           &mockRepository{},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "not found",
			role: "admin",
			repo: &mockRepository{
				DeleteIntegrationFn: func(ctx context.Context, integrationID, orgID string) error {
					return fmt.Errorf("integration %q not found", integrationID)
				},
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(tt.repo)
			w := httptest.NewRecorder()

			h.DeleteIntegration(w, authedRequestAs(http.MethodDelete, "/api/v1/integrations/delete?integration_id=int-1", "", tt.role))

			if w.Code != tt.expectedStatus {
				t.Errorf("DeleteIntegration() status = %v, want %v", w.Code, tt.expectedStatus)
			}
		})
	}
}
