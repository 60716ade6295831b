// Package database provides Postgres operations for alerts, the grant
// catalog, alert matches, webhooks, integrations, and delivery audit rows.
package database

import (
	"time"
)

// Alert represents a saved standing query against the grant catalog,
// owned by one user inside one organization.
type Alert struct {
	AlertID        string `json:"alert_id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`

	// Criteria; all optional.
	Keyword          *string  `json:"keyword,omitempty"`
	Category         *string  `json:"category,omitempty"`
	Agency           *string  `json:"agency,omitempty"`
	StatusPosted     bool     `json:"status_posted"`
	StatusForecasted bool     `json:"status_forecasted"`
	DueInDays        *int     `json:"due_in_days,omitempty"`
	MinAmount        *float64 `json:"min_amount,omitempty"`
	MaxAmount        *float64 `json:"max_amount,omitempty"`

	// Delivery configuration.
	NotifyEmail   bool    `json:"notify_email"`
	NotifyInApp   bool    `json:"notify_in_app"`
	NotifyWebhook bool    `json:"notify_webhook"`
	WebhookURL    *string `json:"webhook_url,omitempty"`
	Cadence       string  `json:"cadence"`

	IsActive        bool       `json:"is_active"`
	LastCheckedAt   *time.Time `json:"last_checked_at,omitempty"`
	LastAlertSentAt *time.Time `json:"last_alert_sent_at,omitempty"`
	AlertCount      int        `json:"alert_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CatalogGrant represents one externally sourced funding opportunity,
// keyed by (source_key, external_id). Read-only from this service.
type CatalogGrant struct {
	SourceKey    string     `json:"source_key"`
	ExternalID   string     `json:"external_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Agency       string     `json:"agency"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	CloseDate    *time.Time `json:"close_date,omitempty"`
	AwardFloor   *float64   `json:"award_floor,omitempty"`
	AwardCeiling *float64   `json:"award_ceiling,omitempty"`
	IsActive     bool       `json:"is_active"`
	FirstSeenAt  time.Time  `json:"first_seen_at"`
}

// AlertMatch joins an alert and a catalog grant observed as matching.
// Unique on (alert_id, external_id).
type AlertMatch struct {
	MatchID        string     `json:"match_id"`
	AlertID        string     `json:"alert_id"`
	ExternalID     string     `json:"external_id"`
	GrantTitle     string     `json:"grant_title"`
	GrantAgency    string     `json:"grant_agency"`
	GrantCloseDate *time.Time `json:"grant_close_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Webhook is a per-organization outbound delivery target with an event
// subscription list and running delivery counters.
type Webhook struct {
	WebhookID        string    `json:"webhook_id"`
	OrganizationID   string    `json:"organization_id"`
	Name             string    `json:"name"`
	URL              string    `json:"url"`
	Secret           string    `json:"-"`
	Events           []string  `json:"events"`
	IsActive         bool      `json:"is_active"`
	TotalDeliveries  int       `json:"total_deliveries"`
	FailedDeliveries int       `json:"failed_deliveries"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// WebhookDelivery is the append-only audit record of one delivery attempt.
type WebhookDelivery struct {
	DeliveryID     string    `json:"delivery_id"`
	WebhookID      string    `json:"webhook_id"`
	EventType      string    `json:"event_type"`
	Payload        string    `json:"payload"`
	ResponseStatus *int      `json:"response_status,omitempty"`
	ResponseBody   *string   `json:"response_body,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Integration is a per-organization chat delivery target (Slack or Teams
// incoming webhook).
type Integration struct {
	IntegrationID  string    `json:"integration_id"`
	OrganizationID string    `json:"organization_id"`
	Provider       string    `json:"provider"` // slack, teams
	WebhookURL     string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User carries the fields needed to resolve notification destinations.
type User struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
}

// AlertListResult contains paginated alert results.
type AlertListResult struct {
	Alerts []*Alert `json:"alerts"`
	Total  int64    `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// WebhookListResult contains paginated webhook results.
type WebhookListResult struct {
	Webhooks []*Webhook `json:"webhooks"`
	Total    int64      `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
