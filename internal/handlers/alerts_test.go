package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grantcue/grantcue/internal/auth"
	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/events"
)

// newTestHandlers builds handlers with mock dependencies.
func newTestHandlers(repo *mockRepository) (*Handlers, *mockPublisher) {
	pub := &mockPublisher{}
	return NewHandlersWithDeps(repo, pub, &mockRunner{}, "scheduler-secret", nil), pub
}

// authedRequest builds a request with member claims attached.
func authedRequest(method, target, body string) *http.Request {
	return authedRequestAs(method, target, body, "member")
}

func authedRequestAs(method, target, body, role string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	claims := auth.Claims{OrganizationID: "org-1", UserID: "user-1", Role: role}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

func TestHandlers_CreateAlert(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		repo           *mockRepository
		expectedStatus int
		expectedAction string
	}{
		{
			name:           "successful create",
			method:         http.MethodPost,
			body:           `{"name":"NSF climate","keyword":"climate","notify_email":true}`,
			repo:           &mockRepository{},
			expectedStatus: http.StatusCreated,
			expectedAction: events.ActionCreated,
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			body:           `{"name":"NSF climate"}`,
			repo:           &mockRepository{},
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "invalid JSON",
			method:         http.MethodPost,
			body:           `not json`,
			repo:           &mockRepository{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			method:         http.MethodPost,
			body:           `{"keyword":"climate"}`,
			repo:           &mockRepository{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown cadence",
			method:         http.MethodPost,
			body:           `{"name":"NSF climate","cadence":"hourly"}`,
			repo:           &mockRepository{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative due_in_days",
			method:         http.MethodPost,
			body:           `{"name":"NSF climate","due_in_days":-3}`,
			repo:           &mockRepository{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "min above max",
			method:         http.MethodPost,
			body:           `{"name":"NSF climate","min_amount":50000,"max_amount":1000}`,
			repo:           &mockRepository{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "webhook delivery without URL",
			method:         http.MethodPost,
			body:           `{"name":"NSF climate","notify_webhook":true}`,
			repo:           &mockRepository{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "duplicate name",
			method: http.MethodPost,
			body:   `{"name":"NSF climate"}`,
			repo: &mockRepository{
				CreateAlertFn: func(ctx context.Context, orgID, userID string, p database.AlertParams) (*database.Alert, error) {
					return nil, fmt.Errorf("alert %q already exists", p.Name)
				},
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, pub := newTestHandlers(tt.repo)
			w := httptest.NewRecorder()

			h.CreateAlert(w, authedRequest(tt.method, "/api/v1/alerts", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("CreateAlert() status = %v, want %v (body %q)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedAction != "" {
				if len(pub.Published) != 1 {
					t.Fatalf("published %d events, want 1", len(pub.Published))
				}
				if pub.Published[0].Action != tt.expectedAction {
					t.Errorf("published action = %q, want %q", pub.Published[0].Action, tt.expectedAction)
				}
				if pub.Published[0].SchemaVersion != SchemaVersion {
					t.Errorf("schema version = %d", pub.Published[0].SchemaVersion)
				}
			} else if len(pub.Published) != 0 {
				t.Errorf("published %d events, want 0", len(pub.Published))
			}
		})
	}
}

func TestHandlers_CreateAlertUnauthenticated(t *testing.T) {
	h, _ := newTestHandlers(&mockRepository{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", bytes.NewBufferString(`{"name":"x"}`))

	h.CreateAlert(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %v, want %v", w.Code, http.StatusUnauthorized)
	}
}

func TestHandlers_CreateAlertPublishFailureIsNotFatal(t *testing.T) {
	repo := &mockRepository{}
	pub := &mockPublisher{PublishFn: func(ctx context.Context, changed *events.AlertChanged) error {
		return fmt.Errorf("kafka unavailable")
	}}
	h := NewHandlersWithDeps(repo, pub, &mockRunner{}, "scheduler-secret", nil)
	w := httptest.NewRecorder()

	h.CreateAlert(w, authedRequest(http.MethodPost, "/api/v1/alerts", `{"name":"NSF climate"}`))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %v, want %v", w.Code, http.StatusCreated)
	}
}

func TestHandlers_GetAlert(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		repo           *mockRepository
		expectedStatus int
	}{
		{
			name:           "found",
			target:         "/api/v1/alerts?alert_id=alert-1",
			repo:           &mockRepository{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing alert_id",
			target:         "/api/v1/alerts",
			repo:           &mockRepository{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "not found",
			target: "/api/v1/alerts?alert_id=missing",
			repo: &mockRepository{
				GetAlertFn: func(ctx context.Context, alertID, orgID string) (*database.Alert, error) {
					return nil, fmt.Errorf("alert %q not found", alertID)
				},
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(tt.repo)
			w := httptest.NewRecorder()

			h.GetAlert(w, authedRequest(http.MethodGet, tt.target, ""))

			if w.Code != tt.expectedStatus {
				t.Errorf("GetAlert() status = %v, want %v", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandlers_ListAlerts(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockRepository{
		ListAlertsFn: func(ctx context.Context, orgID string, limit, offset int) (*database.AlertListResult, error) {
			gotLimit, gotOffset = limit, offset
			return &database.AlertListResult{Alerts: []*database.Alert{{AlertID: "alert-1"}}, Total: 1, Limit: limit, Offset: offset}, nil
		},
	}
	h, _ := newTestHandlers(repo)
	w := httptest.NewRecorder()

	h.ListAlerts(w, authedRequest(http.MethodGet, "/api/v1/alerts?limit=10&offset=20", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v", w.Code)
	}
	if gotLimit != 10 || gotOffset != 20 {
		t.Errorf("pagination = (%d, %d), want (10, 20)", gotLimit, gotOffset)
	}

	var result database.AlertListResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("total = %d, want 1", result.Total)
	}
}

func TestHandlers_ListAlertsDefaultPagination(t *testing.T) {
	var gotLimit int
	repo := &mockRepository{
		ListAlertsFn: func(ctx context.Context, orgID string, limit, offset int) (*database.AlertListResult, error) {
			gotLimit = limit
			return &database.AlertListResult{}, nil
		},
	}
	h, _ := newTestHandlers(repo)
	w := httptest.NewRecorder()

	h.ListAlerts(w, authedRequest(http.MethodGet, "/api/v1/alerts", ""))

	if gotLimit != DefaultPagination.Limit {
		t.Errorf("default limit = %d, want %d", gotLimit, DefaultPagination.Limit)
	}
}

func TestHandlers_UpdateAlert(t *testing.T) {
	h, pub := newTestHandlers(&mockRepository{})
	w := httptest.NewRecorder()

	h.UpdateAlert(w, authedRequest(http.MethodPut, "/api/v1/alerts/update?alert_id=alert-1", `{"name":"Renamed"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v (body %q)", w.Code, w.Body.String())
	}
	if len(pub.Published) != 1 || pub.Published[0].Action != events.ActionUpdated {
		t.Errorf("published = %+v, want one UPDATED event", pub.Published)
	}
}

func TestHandlers_ToggleAlertActive(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedAction string
	}{
		{"disable publishes DISABLED", `{"active":false}`, events.ActionDisabled},
		{"re-enable publishes UPDATED", `{"active":true}`, events.ActionUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, pub := newTestHandlers(&mockRepository{})
			w := httptest.NewRecorder()

			h.ToggleAlertActive(w, authedRequest(http.MethodPost, "/api/v1/alerts/toggle?alert_id=alert-1", tt.body))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %v", w.Code)
			}
			if len(pub.Published) != 1 || pub.Published[0].Action != tt.expectedAction {
				t.Errorf("published = %+v, want one %s event", pub.Published, tt.expectedAction)
			}
		})
	}
}

func TestHandlers_DeleteAlert(t *testing.T) {
	tests := []struct {
		name           string
		repo           *mockRepository
		expectedStatus int
		expectEvent    bool
	}{
		{
			name:           "successful delete",
			repo:           &mockRepository{},
			expectedStatus: http.StatusNoContent,
			expectEvent:    true,
		},
		{
			name: "not owner",
			repo: &mockRepository{
				DeleteAlertFn: func(ctx context.Context, alertID, userID string) error {
					return fmt.Errorf("alert %q not found or not owned by user", alertID)
				},
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "alert missing",
			repo: &mockRepository{
				GetAlertFn: func(ctx context.Context, alertID, orgID string) (*database.Alert, error) {
					return nil, fmt.Errorf("alert %q not found", alertID)
				},
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, pub := newTestHandlers(tt.repo)
			w := httptest.NewRecorder()

			h.DeleteAlert(w, authedRequest(http.MethodDelete, "/api/v1/alerts/delete?alert_id=alert-1", ""))

			if w.Code != tt.expectedStatus {
				t.Errorf("DeleteAlert() status = %v, want %v", w.Code, tt.expectedStatus)
			}
			if tt.expectEvent {
				if len(pub.Published) != 1 || pub.Published[0].Action != events.ActionDeleted {
					t.Errorf("published = %+v, want one DELETED event", pub.Published)
				}
			} else if len(pub.Published) != 0 {
				t.Errorf("published %d events, want 0", len(pub.Published))
			}
		})
	}
}

func TestHandlers_ListAlertMatches(t *testing.T) {
	t.Run("scoped to organization", func(t *testing.T) {
		repo := &mockRepository{
			GetAlertFn: func(ctx context.Context, alertID, orgID string) (*database.Alert, error) {
				return nil, fmt.Errorf("alert %q not found", alertID)
			},
			ListMatchesFn: func(ctx context.Context, alertID string, limit int) ([]*database.AlertMatch, error) {
				t.Fatal("ListMatches called despite failed scope check")
				return nil, nil
			},
		}
		h, _ := newTestHandlers(repo)
		w := httptest.NewRecorder()

		h.ListAlertMatches(w, authedRequest(http.MethodGet, "/api/v1/alerts/matches?alert_id=alert-1", ""))

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %v, want %v", w.Code, http.StatusNotFound)
		}
	})

	t.Run("returns matches", func(t *testing.T) {
		repo := &mockRepository{
			ListMatchesFn: func(ctx context.Context, alertID string, limit int) ([]*database.AlertMatch, error) {
				return []*database.AlertMatch{{MatchID: "m-1", AlertID: alertID, ExternalID: "G-1", GrantTitle: "Coastal Resilience"}}, nil
			},
		}
		h, _ := newTestHandlers(repo)
		w := httptest.NewRecorder()

		h.ListAlertMatches(w, authedRequest(http.MethodGet, "/api/v1/alerts/matches?alert_id=alert-1", ""))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %v", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Coastal Resilience") {
			t.Errorf("body = %q", w.Body.String())
		}
	})
}
