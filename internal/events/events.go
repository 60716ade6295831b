// Package events defines the notification event model and the alert.changed
// event published on alert mutations.
package events

import (
	"time"
)

// Kind identifies a notification event type.
type Kind string

// Event kinds deliverable through the fan-out.
const (
	KindGrantMatched        Kind = "grant.matched"
	KindGrantSaved          Kind = "grant.saved"
	KindTaskAssigned        Kind = "task.assigned"
	KindDeadlineApproaching Kind = "deadline.approaching"
)

// Event is the canonical description of one notifiable occurrence. Each
// variant carries exactly the fields its kind needs; formatters switch
// exhaustively on the concrete type.
type Event interface {
	// Kind returns the event type string used for webhook subscriptions.
	Kind() Kind

	// Org returns the organization the event belongs to.
	Org() string
}

// MatchedGrant carries the display fields of one grant that matched an alert.
type MatchedGrant struct {
	ExternalID string     `json:"external_id"`
	Title      string     `json:"title"`
	Agency     string     `json:"agency"`
	CloseDate  *time.Time `json:"close_date,omitempty"`
}

// GrantMatched is emitted by the matching pipeline, one per alert that
// produced newly recorded matches in a run.
type GrantMatched struct {
	OrganizationID string
	AlertID        string
	AlertName      string
	OwnerUserID    string
	Grants         []MatchedGrant
}

func (e GrantMatched) Kind() Kind  { return KindGrantMatched }
func (e GrantMatched) Org() string { return e.OrganizationID }

// GrantSaved is emitted when a user saves a grant to their tracker.
type GrantSaved struct {
	OrganizationID string
	GrantID        string
	GrantTitle     string
	GrantAgency    string
	GrantDeadline  *time.Time
	SavedByID      string
	SavedByName    string
}

func (e GrantSaved) Kind() Kind  { return KindGrantSaved }
func (e GrantSaved) Org() string { return e.OrganizationID }

// TaskAssigned is emitted when a task on a tracked grant is assigned.
type TaskAssigned struct {
	OrganizationID string
	GrantID        string
	GrantTitle     string
	TaskID         string
	TaskTitle      string
	AssignedToID   string
	AssignedToName string
}

func (e TaskAssigned) Kind() Kind  { return KindTaskAssigned }
func (e TaskAssigned) Org() string { return e.OrganizationID }

// DeadlineApproaching is emitted when a tracked grant's close date is near.
type DeadlineApproaching struct {
	OrganizationID string
	GrantID        string
	GrantTitle     string
	GrantAgency    string
	GrantDeadline  *time.Time
	DaysLeft       int
}

func (e DeadlineApproaching) Kind() Kind  { return KindDeadlineApproaching }
func (e DeadlineApproaching) Org() string { return e.OrganizationID }

// ValidKinds lists every deliverable event kind.
var ValidKinds = []Kind{
	KindGrantMatched,
	KindGrantSaved,
	KindTaskAssigned,
	KindDeadlineApproaching,
}

// IsValidKind reports whether s names a known event kind.
func IsValidKind(s string) bool {
	for _, k := range ValidKinds {
		if string(k) == s {
			return true
		}
	}
	return false
}
