package events

// AlertChanged represents an alert change event published to the
// alert.changed topic.
type AlertChanged struct {
	AlertID        string `json:"alert_id"`
	OrganizationID string `json:"organization_id"`
	Action         string `json:"action"` // CREATED, UPDATED, DELETED, DISABLED
	UpdatedAt      int64  `json:"updated_at"` // Unix timestamp
	SchemaVersion  int    `json:"schema_version"`
}

// Valid actions for AlertChanged
const (
	ActionCreated  = "CREATED"
	ActionUpdated  = "UPDATED"
	ActionDeleted  = "DELETED"
	ActionDisabled = "DISABLED"
)
